package client

import (
	"context"

	"github.com/dmitrijs2005/geodash/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, name, zipCode string) (*models.User, error)
	Update(ctx context.Context, id, name, zipCode, originalZipCode string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, onChange func()) error
}
