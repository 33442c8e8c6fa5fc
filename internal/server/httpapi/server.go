// Package httpapi exposes the user workflow as a JSON REST API with a
// server-sent events stream of change signals.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"github.com/gin-gonic/gin"
)

// UserService is the workflow surface the REST handlers drive.
type UserService interface {
	List(ctx context.Context) ([]*models.UserRecord, error)
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Create(ctx context.Context, name, postalCode string) (*models.UserRecord, error)
	Update(ctx context.Context, id, name, postalCode, originalPostalCode string) (*models.UserRecord, error)
	Delete(ctx context.Context, id string) error
	Subscribe(onChange func()) func()
}

type HTTPServer struct {
	address   string
	users     UserService
	logger    logging.Logger
	jwtSecret []byte
	keepAlive time.Duration
}

func NewHTTPServer(a string, l logging.Logger, us UserService, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		jwtSecret: []byte(secretKey),
		keepAlive: 25 * time.Second,
	}
}

// Router builds the gin engine with all routes registered.
func (s *HTTPServer) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(s.requireKey())

	api.GET("/users", s.listUsers)
	api.GET("/users/events", s.events)
	api.GET("/users/:id", s.getUser)
	api.POST("/users", s.createUser)
	api.PUT("/users/:id", s.updateUser)
	api.DELETE("/users/:id", s.deleteUser)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve handles requests on lis until ctx is cancelled, then shuts down.
// Open event streams end when ctx is cancelled.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
