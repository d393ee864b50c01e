package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/unigate/unigate/apps/api/echo"
	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/catalog"
	"github.com/unigate/unigate/core/document"
	"github.com/unigate/unigate/core/messaging"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
	"github.com/unigate/unigate/core/reporting"
	"github.com/unigate/unigate/core/student"
	emailsvc "github.com/unigate/unigate/services/email"
	logsvc "github.com/unigate/unigate/services/logger"
	"github.com/unigate/unigate/services/ratelimit"
	storagesvc "github.com/unigate/unigate/services/storage"
	"github.com/unigate/unigate/storage/database"
	sqlxrepos "github.com/unigate/unigate/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	files, err := storagesvc.NewDiskStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up blob storage: %v", err), err)
	}

	var limiter ratelimit.Limiter
	if conf.Redis.Addr != "" {
		limiter = ratelimit.NewRedisLimiter(conf)
	} else {
		limiter = ratelimit.NewMemoryLimiter(conf.RateLimit.Requests, conf.RateLimit.Window)
	}

	hub := realtime.NewHub()

	reportCache := reporting.NewCache(128, time.Minute)

	profileSvc := profile.NewService(sqlxrepos.NewProfileRepository(db))
	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogRepository(db))
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	agentSvc := agent.NewService(sqlxrepos.NewAgentRepository(db), reportCache)
	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(db), logger)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), hub)
	appSvc := application.NewService(sqlxrepos.NewApplicationRepository(db), notifSvc, auditSvc, hub, reportCache)
	signer := document.NewURLSigner(conf.SecretKey, conf.Storage.SignedURLTimeout)
	docSvc := document.NewService(sqlxrepos.NewDocumentRepository(db), files, signer, appSvc, auditSvc, logger)
	msgSvc := messaging.NewService(sqlxrepos.NewMessagingRepository(db), notifSvc, auditSvc, hub)
	reportSvc := reporting.NewService(appSvc, agentSvc, reportCache)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	agent.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	document.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	messaging.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			ProfileSvc:      profileSvc,
			CatalogSvc:      catalogSvc,
			StudentSvc:      studentSvc,
			AgentSvc:        agentSvc,
			ApplicationSvc:  appSvc,
			DocumentSvc:     docSvc,
			NotificationSvc: notifSvc,
			MessagingSvc:    msgSvc,
			ReportingSvc:    reportSvc,
			AuditSvc:        auditSvc,
			Hub:             hub,
			Limiter:         limiter,
			EmailSvc:        mailSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
