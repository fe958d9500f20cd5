package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixil98/go-storyweave/internal/dynamic"
	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/placeholder"
)

const DefaultShutdownTimeout = 10 * time.Second

// StoryService is what the HTTP surface drives.
type StoryService interface {
	Generate(ctx context.Context, req dynamic.Request) (dynamic.Result, error)
	RecordChoice(ctx context.Context, req dynamic.ChoiceRequest) (*ledger.PlayerChoice, error)
	Story(ctx context.Context, playerID string, storyIDs []string) string
}

type Interpreter interface {
	Interpret(ctx context.Context, text string, scope placeholder.Scope) string
}

// HTTPListener serves the story API.
type HTTPListener struct {
	addr            string
	allowedOrigins  []string
	shutdownTimeout time.Duration

	svc    StoryService
	interp Interpreter
	engine *gin.Engine
}

func NewHTTPListener(addr string, svc StoryService, interp Interpreter, opts ...HTTPListenerOpt) *HTTPListener {
	l := &HTTPListener{
		addr:            addr,
		shutdownTimeout: DefaultShutdownTimeout,
		svc:             svc,
		interp:          interp,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.engine = l.routes()
	return l
}

// Handler exposes the router, mostly for tests.
func (l *HTTPListener) Handler() http.Handler {
	return l.engine
}

func (l *HTTPListener) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(l.allowedOrigins) > 0 {
		corsConfig.AllowOrigins = l.allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/dynamic", l.handleDynamic)
	api.POST("/choice", l.handleChoice)
	api.POST("/interpret", l.handleInterpret)
	api.GET("/players/:id/story", l.handleStory)

	return r
}

// Start serves until ctx is done, then drains in-flight requests.
func (l *HTTPListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("address %s is already in use (another server running?)", l.addr)
		}
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}

	srv := &http.Server{
		Handler:           l.engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.InfoContext(ctx, "http listener started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http on %s: %w", l.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http listener: %w", err)
	}
	slog.InfoContext(ctx, "http listener stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
