package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unigate/unigate/core/catalog"
	"github.com/unigate/unigate/core/profile"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sqlx.DB
	profileRepo profile.Repository
	catalogRepo catalog.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  addstaff -tenant TENANT -name NAME -email EMAIL [-admin] [-id ID] - create or update a staff profile")
	fmt.Println("  seedcatalog -tenant TENANT -file FILE - load universities and programs from a JSON file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffTenant := addStaffCmd.String("tenant", "", "The tenant the profile belongs to.")
	addStaffName := addStaffCmd.String("name", "", "The staff member's full name.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email address.")
	addStaffAdmin := addStaffCmd.Bool("admin", false, "Grant the admin role instead of staff.")
	addStaffID := addStaffCmd.String("id", "", "The platform user ID; generated when omitted.")

	seedCatalogCmd := flag.NewFlagSet("seedcatalog", flag.ExitOnError)
	seedCatalogTenant := seedCatalogCmd.String("tenant", "", "The tenant to seed into.")
	seedCatalogFile := seedCatalogCmd.String("file", "", "Path to the JSON catalog file.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffTenant == "" || *addStaffName == "" || *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffID, *addStaffTenant, *addStaffName, *addStaffEmail, *addStaffAdmin)
	case "seedcatalog":
		if err := seedCatalogCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedCatalogTenant == "" || *seedCatalogFile == "" {
			seedCatalogCmd.Usage()
			return errHelp
		}
		return cli.seedCatalog(*seedCatalogTenant, *seedCatalogFile)
	default:
		cli.printUsage()
		return errHelp
	}
}
