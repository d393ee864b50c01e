package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
	"github.com/unigate/unigate/services/ratelimit"
)

type (
	// ServerDeps carries everything the API server needs; all fields are
	// required unless noted.
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		ProfileSvc      *profile.Service
		CatalogSvc      *catalog.Service
		StudentSvc      *student.Service
		AgentSvc        *agent.Service
		ApplicationSvc  *application.Service
		DocumentSvc     *document.Service
		NotificationSvc *notification.Service
		MessagingSvc    *messaging.Service
		ReportingSvc    *reporting.Service
		AuditSvc        *audit.Service

		Hub      *realtime.Hub
		Limiter  ratelimit.Limiter
		EmailSvc core.EmailService

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	s.app.Use(newMetricsMiddleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/metrics", metricsHandler())

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))

	registerProfileAPI(v1, jwt, s.deps.ProfileSvc, s.deps.Validate)
	registerCatalogAPI(v1, jwt, s.deps.CatalogSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.DocumentSvc, s.deps.Validate)
	registerAgentAPI(v1, jwt, s.deps.AgentSvc, s.deps.Validate)
	registerApplicationAPI(v1, jwt, s.deps.ApplicationSvc, s.deps.DocumentSvc, s.deps.Validate)
	registerDocumentAPI(v1, jwt, s.deps.DocumentSvc, s.deps.Validate)
	registerNotificationAPI(v1, jwt, s.deps.NotificationSvc, s.deps.Validate)
	registerMessagingAPI(v1, jwt, s.deps.MessagingSvc, s.deps.Validate)
	registerReportingAPI(v1, jwt, s.deps.ReportingSvc)
	registerAuditAPI(v1, jwt, s.deps.AuditSvc)
	registerFeedAPI(v1, conf, s.deps.Hub)

	fns := s.app.Group("/functions", jwt)
	registerFunctionsAPI(fns, s.deps)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.deps.Conf.Server.Host)
	}()
}

func (s *server) Errors() <-chan error            { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// signalShutdown requests a graceful stop; used by the error handler on
// shutdown-class errors.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Unigate API!")
}
