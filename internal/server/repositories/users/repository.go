// Package users implements the persistence of user records on top of
// database/sql. One implementation serves both Postgres (pgx stdlib) and
// SQLite (modernc); queries are written in Postgres syntax and rebound.
package users

import (
	"context"

	"github.com/dmitrijs2005/geodash/internal/server/models"
)

// Repository is the row-level contract for the users table.
//
// Not-found conditions are reported as common.ErrorNotFound; constraint
// failures wrap common.ErrConstraintViolation; everything else is a wrapped
// "db error".
type Repository interface {
	List(ctx context.Context) ([]*models.UserRecord, error)
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Insert(ctx context.Context, u models.NewUser) (*models.UserRecord, error)
	Update(ctx context.Context, id string, p models.UserPatch) (*models.UserRecord, error)
	Delete(ctx context.Context, id string) error
}
