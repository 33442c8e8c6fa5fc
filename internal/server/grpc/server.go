package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/geodash/internal/api"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"google.golang.org/grpc"
)

// UserService is the workflow surface the gRPC transport drives.
type UserService interface {
	List(ctx context.Context) ([]*models.UserRecord, error)
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Create(ctx context.Context, name, postalCode string) (*models.UserRecord, error)
	Update(ctx context.Context, id, name, postalCode, originalPostalCode string) (*models.UserRecord, error)
	Delete(ctx context.Context, id string) error
	Subscribe(onChange func()) func()
}

type GRPCServer struct {
	api.UnimplementedUserServiceServer
	address   string
	users     UserService
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds the server. An empty secretKey disables API key
// checks.
func NewGRPCServer(a string, l logging.Logger, us UserService, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		jwtSecret: []byte(secretKey),
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamLoggingInterceptor, s.streamAccessTokenInterceptor),
	)
	api.RegisterUserServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
