package grpc

import (
	"context"

	"github.com/dmitrijs2005/geodash/internal/api"
	"github.com/dmitrijs2005/geodash/internal/server/changefeed"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error) {

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list", err)
	}

	return &api.ListUsersResponse{Users: api.FromRecords(users)}, nil

}

func (s *GRPCServer) GetUser(ctx context.Context, req *api.GetUserRequest) (*api.GetUserResponse, error) {

	u, err := s.users.Get(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}

	return &api.GetUserResponse{User: api.FromRecord(u)}, nil

}

func (s *GRPCServer) CreateUser(ctx context.Context, req *api.CreateUserRequest) (*api.CreateUserResponse, error) {

	u, err := s.users.Create(ctx, req.Name, req.ZipCode)
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	s.logger.Info(ctx, "User created", "id", u.ID)
	return &api.CreateUserResponse{User: api.FromRecord(u)}, nil

}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *api.UpdateUserRequest) (*api.UpdateUserResponse, error) {

	u, err := s.users.Update(ctx, req.ID, req.Name, req.ZipCode, req.OriginalZipCode)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	s.logger.Info(ctx, "User updated", "id", u.ID)
	return &api.UpdateUserResponse{User: api.FromRecord(u)}, nil

}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *api.DeleteUserRequest) (*api.DeleteUserResponse, error) {

	if err := s.users.Delete(ctx, req.ID); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}

	s.logger.Info(ctx, "User deleted", "id", req.ID)
	return &api.DeleteUserResponse{}, nil

}

// WatchUsers sends one ChangeEvent per observed batch of changes until the
// client goes away. Bursts collapse into a single event.
func (s *GRPCServer) WatchUsers(req *api.WatchUsersRequest, stream grpc.ServerStreamingServer[api.ChangeEvent]) error {
	ctx := stream.Context()

	changed := make(chan struct{}, 1)
	unsubscribe := s.users.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Headers tell the client the subscription is live.
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			if err := stream.Send(&api.ChangeEvent{Op: changefeed.OpResync}); err != nil {
				return err
			}
		}
	}
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	if api.Classify(err).Reason == "" {
		s.logger.Error(ctx, "request failed", "op", op, "error", err)
	} else {
		s.logger.Warn(ctx, "request rejected", "op", op, "error", err)
	}
	return api.ToStatus(err)
}
