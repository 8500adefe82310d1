// Package web is the chat front end: an embedded single-page UI plus the JSON
// API it talks to. Each session owns one conversation store; each submission
// is one synchronous round trip through the analyst client and, when
// configured, the warehouse executor.
package web

import (
	"context"
	_ "embed"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

//go:embed index.html
var indexHTML []byte

// Config holds web server settings.
type Config struct {
	ListenAddr string
}

// Asker sends a turn sequence to the analyst. Satisfied by *analyst.Client;
// narrowed to an interface so handler tests can stub the remote service.
type Asker interface {
	Send(ctx context.Context, messages []analyst.Message) (*envelope.Reply, error)
}

// Runner executes analyst-generated SQL. Satisfied by *warehouse.Executor.
type Runner interface {
	Execute(ctx context.Context, statement string) (*warehouse.QueryResult, error)
	Disabled() bool
}

// Server is the web front end server.
type Server struct {
	config   Config
	analyst  Asker
	runner   Runner
	logger   *zap.Logger
	app      *fiber.App
	sessions *sessionManager
}

// NewServer creates a new web server. The analyst client and warehouse
// executor are injected so they can be shared with the CLI commands.
func NewServer(config Config, asker Asker, runner Runner, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		analyst:  asker,
		runner:   runner,
		logger:   logger,
		app:      app,
		sessions: newSessionManager(),
	}

	app.Get("/", s.handleIndex)
	app.Get("/ping", s.handlePing)
	app.Post("/api/sessions", s.handleCreateSession)
	app.Delete("/api/sessions/:id", s.handleEndSession)
	app.Get("/api/sessions/:id/history", s.handleHistory)
	app.Post("/api/sessions/:id/messages", s.handleAsk)

	return s
}

// Run starts the web server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting web server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
