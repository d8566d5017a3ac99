package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/activity"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/content"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger       core.Logger
		UserSvc      *user.Service
		ClassroomSvc *classroom.Service
		ActivitySvc  *activity.Service
		NotifSvc     *notification.Service
		ContentDir   *content.Directory
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

const shutdownTimeout = 20 * time.Second

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: gommonlog.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerClassroomAPI(v1, jwt, s.opts.ClassroomSvc, s.opts.ContentDir, s.opts.UserSvc)
	registerActivityAPI(v1, jwt, s.opts.ActivitySvc)
	registerNotificationAPI(v1, jwt, s.opts.NotifSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() {
		errs <- s.app.Start(s.opts.Address)
	}()

	select {
	case err := <-errs:
		s.opts.Logger.Fatal("server error: "+err.Error(), err)

	case sig := <-s.shutdown:
		s.opts.Logger.Info("shutdown started: " + sig.String())

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.Stop(ctx); err != nil {
			s.opts.Logger.Error("could not stop server gracefully: "+err.Error(), err)
			if err = s.app.Close(); err != nil {
				s.opts.Logger.Fatal("could not force stop server: "+err.Error(), err)
			}
		}
	}
}

// signalShutdown initiates a graceful shutdown; called when an unrecoverable
// error bubbles up to the error handler.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
