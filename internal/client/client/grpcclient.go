package client

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/geodash/internal/api"
	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var ErrUnavailable = errors.New("server unavailable")

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.UserServiceClient
	apiKey      string
	timeout     time.Duration
	backoff     time.Duration
	logger      logging.Logger
	dialOpts    []grpc.DialOption
}

type Option func(*GRPCClient)

func WithAPIKey(key string) Option {
	return func(c *GRPCClient) { c.apiKey = key }
}

// WithTimeout sets the deadline applied to each unary call. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *GRPCClient) { c.logger = l.With("module", "grpc_client") }
}

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.apiKey != "" {
		ctx = withAccessToken(ctx, s.apiKey)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	if s.apiKey != "" {
		ctx = withAccessToken(ctx, s.apiKey)
	}
	return streamer(ctx, desc, cc, method, opts...)
}

func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		timeout:     10 * time.Second,
		backoff:     2 * time.Second,
		logger:      logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewUserServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListUsers(ctx, &api.ListUsersRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return models.FromAPIList(resp.Users), nil
}

func (s *GRPCClient) Get(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetUser(ctx, &api.GetUserRequest{ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	u := models.FromAPI(resp.User)
	return &u, nil
}

func (s *GRPCClient) Create(ctx context.Context, name, zipCode string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.CreateUser(ctx, &api.CreateUserRequest{Name: name, ZipCode: zipCode})
	if err != nil {
		return nil, s.mapError(err)
	}
	u := models.FromAPI(resp.User)
	return &u, nil
}

func (s *GRPCClient) Update(ctx context.Context, id, name, zipCode, originalZipCode string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.UpdateUserRequest{ID: id, Name: name, ZipCode: zipCode, OriginalZipCode: originalZipCode}
	resp, err := s.client.UpdateUser(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	u := models.FromAPI(resp.User)
	return &u, nil
}

func (s *GRPCClient) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.DeleteUser(ctx, &api.DeleteUserRequest{ID: id}); err != nil {
		return s.mapError(err)
	}
	return nil
}

// Watch calls onChange for every change signal until ctx is cancelled.
// A broken stream is reopened after a pause; onChange is called once after
// each reconnect since signals may have been missed in between.
func (s *GRPCClient) Watch(ctx context.Context, onChange func()) error {
	reconnected := false
	for {
		err := s.watchOnce(ctx, onChange, reconnected)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(s.mapError(err), common.ErrorUnauthorized) {
			return s.mapError(err)
		}

		s.logger.Warn(ctx, "change stream interrupted", "error", err, "retry_in", s.backoff.String())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.backoff):
		}
		reconnected = true
	}
}

func (s *GRPCClient) watchOnce(ctx context.Context, onChange func(), resync bool) error {
	stream, err := s.client.WatchUsers(ctx, &api.WatchUsersRequest{})
	if err != nil {
		return err
	}

	// Headers arrive once the server accepted the stream.
	if _, err := stream.Header(); err != nil {
		return err
	}
	if resync {
		onChange()
	}

	for {
		if _, err := stream.Recv(); err != nil {
			return err
		}
		onChange()
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	return api.FromStatus(err)
}
