package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core/catalog"
)

var readFileFunc = os.ReadFile // mockable

type (
	seedProgram struct {
		Name         string `json:"name"`
		Level        string `json:"level"`
		TuitionCents int64  `json:"tuition_cents"`
		Currency     string `json:"currency"`
	}

	seedUniversity struct {
		Name     string        `json:"name"`
		Country  string        `json:"country"`
		City     string        `json:"city"`
		Programs []seedProgram `json:"programs"`
	}
)

// seedCatalog loads universities and their programs from a JSON file into the
// tenant's catalog.
func (cli *commandLine) seedCatalog(tenant, file string) error {
	raw, err := readFileFunc(file)
	if err != nil {
		return err
	}

	var seeds []seedUniversity
	if err = json.Unmarshal(raw, &seeds); err != nil {
		return err
	}

	ctx := context.Background()
	for _, seed := range seeds {
		uni, err := cli.catalogRepo.CreateUniversity(ctx, catalog.University{
			ID:      uuid.New().String(),
			Tenant:  tenant,
			Name:    seed.Name,
			Country: seed.Country,
			City:    seed.City,
		})
		if err != nil {
			return err
		}

		for _, sp := range seed.Programs {
			currency := strings.ToUpper(sp.Currency)
			if currency == "" {
				currency = "GBP"
			}
			if _, err = cli.catalogRepo.CreateProgram(ctx, catalog.Program{
				ID:           uuid.New().String(),
				UniversityID: uni.ID,
				Name:         sp.Name,
				Level:        sp.Level,
				TuitionCents: sp.TuitionCents,
				Currency:     currency,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
