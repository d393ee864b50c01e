package tests

import (
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	. "github.com/unigate/unigate/apps/api/echo"
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
	"github.com/unigate/unigate/services/ratelimit"
	dummydb "github.com/unigate/unigate/storage/database/dummy"
	testutil "github.com/unigate/unigate/tests"
)

var (
	conf *core.Config
	app  Server
	db   *dummydb.DB

	profileRepo profile.Repository
	catalogRepo catalog.Repository
	studentRepo student.Repository
	agentRepo   agent.Repository
	appRepo     application.Repository
	docRepo     *dummydb.DocumentRepository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// requests allowed per rate-limited function within the test window
const testRateLimit = 2

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	conf.Debug = false
	logger := testutil.NewLogger()

	// set up DB & repos
	var err error
	if db, err = dummydb.Open(); err != nil {
		os.Exit(1)
	}
	profileRepo = dummydb.NewProfileRepository(db)
	catalogRepo = dummydb.NewCatalogRepository(db)
	studentRepo = dummydb.NewStudentRepository(db)
	agentRepo = dummydb.NewAgentRepository(db)
	appRepo = dummydb.NewApplicationRepository(db)
	docRepo = dummydb.NewDocumentRepository(db)

	// set up services
	hub := realtime.NewHub()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	reportCache := reporting.NewCache(8, time.Minute)
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), hub)
	auditSvc := audit.NewService(dummydb.NewAuditRepository(db), logger)
	appSvc := application.NewService(appRepo, notifSvc, auditSvc, hub, reportCache)
	signer := document.NewURLSigner(conf.SecretKey, conf.Storage.SignedURLTimeout)
	docSvc := document.NewService(docRepo, testutil.NewMemStorage(), signer, appSvc, auditSvc, logger)
	agentSvc := agent.NewService(agentRepo, reportCache)

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

	// set up server
	app = NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		ProfileSvc:      profile.NewService(profileRepo),
		CatalogSvc:      catalog.NewService(catalogRepo),
		StudentSvc:      student.NewService(studentRepo),
		AgentSvc:        agentSvc,
		ApplicationSvc:  appSvc,
		DocumentSvc:     docSvc,
		NotificationSvc: notifSvc,
		MessagingSvc:    messaging.NewService(dummydb.NewMessagingRepository(db), notifSvc, auditSvc, hub),
		ReportingSvc:    reporting.NewService(appSvc, agentSvc, reportCache),
		AuditSvc:        auditSvc,
		Hub:             hub,
		Limiter:         ratelimit.NewMemoryLimiter(testRateLimit, time.Minute),
		EmailSvc:        mailSvc,
		Validate:        validate,
		Translator:      translator,
	})

	os.Exit(m.Run())
}
