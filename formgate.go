// Package formgate wires the public submission intake and the owner API into
// one http server.
package formgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/api/ownerapi"
	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/internal/intake"
	"github.com/formgate/formgate/internal/notify"
	"github.com/formgate/formgate/internal/version"
	"github.com/formgate/formgate/storage/model"
)

// ServiceName is reported by the health endpoint
const ServiceName = "formgate"

// MsgDatabaseUnavailable is returned by the readiness endpoint
const MsgDatabaseUnavailable = "Database unavailable."

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	BodyLimit:      DefaultBodyLimit,
	ErrorHandler:   handleError,
	JSONEncoder:    json.Marshal,
	JSONDecoder:    json.Unmarshal,
	Network:        "tcp",
}

// Pinger checks the availability of the database
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds everything the http handlers depend on
type Services struct {
	Storage       Pinger
	Intake        *intake.Orchestrator
	Credentials   *credential.Manager
	Forms         model.FormsStore
	Submissions   model.SubmissionsStore
	Notifications *notify.Dispatcher
	// AccessLog receives one line per request; defaults to stderr
	AccessLog io.Writer
}

// Server is the formgate http server
type Server struct {
	server        *fiber.App
	serverConf    ServerConf
	notifications *notify.Dispatcher
}

// NewServer creates a new Server and registers all routes
func NewServer(serverConf ServerConf, services Services, apiOpts ownerapi.Options) (*Server, error) {
	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = serverConf.TrustedProxies
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	if serverConf.BodyLimit > 0 {
		fiberConf.BodyLimit = serverConf.BodyLimit
	}
	accessLog := services.AccessLog
	if accessLog == nil {
		accessLog = os.Stderr
	}

	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	server.Use(helmet.New())
	server.Use(compress.New())
	server.Use(
		logger.New(
			logger.Config{
				Format: "${time} ${locals:requestid} ${ip} ${status} - ${latency} ${method} ${path}\n",
				Output: accessLog,
			},
		),
	)

	server.Get(
		"/health", func(c *fiber.Ctx) error {
			return c.JSON(
				fiber.Map{
					"ok":      true,
					"service": ServiceName,
					"version": version.VERSION,
				},
			)
		},
	)
	server.Get(
		"/ready", func(c *fiber.Ctx) error {
			if err := services.Storage.Ping(c.UserContext()); err != nil {
				log.WithError(err).WithField("request_id", requestID(c)).Error("readiness.failed")
				return apperr.Dependency(err, MsgDatabaseUnavailable)
			}
			return c.JSON(fiber.Map{"ok": true})
		},
	)

	registerIntake(server.Group("/f"), services.Intake)

	if err := ownerapi.Register(
		server.Group("/api"), ownerapi.Services{
			Credentials: services.Credentials,
			Forms:       services.Forms,
			Submissions: services.Submissions,
		}, apiOpts,
	); err != nil {
		return nil, err
	}

	return &Server{
		server:        server,
		serverConf:    serverConf,
		notifications: services.Notifications,
	}, nil
}

// App returns the underlying fiber.App
func (s *Server) App() *fiber.App {
	return s.server
}

// Start serves until ctx is done and then shuts down gracefully: no new
// connections are accepted, in-flight requests and notifications are given
// ShutdownTimeout to finish.
func (s *Server) Start(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		errs <- s.serve()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("server.shutdown.start")
	deadline, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.ShutdownWithContext(deadline); err != nil {
		log.WithError(err).Error("server.shutdown.failed")
		return err
	}
	if err := s.notifications.Wait(deadline); err != nil {
		log.WithError(err).Error("server.shutdown.timeout")
		return err
	}
	log.Info("server.shutdown.complete")
	return nil
}

func (s *Server) serve() error {
	conf := s.serverConf
	port := conf.Port
	if port == 0 {
		port = DefaultPort
	}
	if !conf.TLS.Enabled {
		log.WithField("port", port).Info("TLS is disabled starting http server")
		return s.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, port))
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Error("redirect server stopped")
		}()
	}
	if conf.Port == 0 {
		port = 443
	}
	log.WithField("port", port).Info("TLS enabled, starting https server")
	return s.server.ListenTLS(fmt.Sprintf("%s:%d", conf.IPListen, port), conf.TLS.Cert, conf.TLS.Key)
}

func requestID(c *fiber.Ctx) string {
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return rid
	}
	return ""
}
