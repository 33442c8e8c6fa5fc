// Package store is the UserStore: the users repository plus the change
// feed, with every failure translated into a *common.StoreError.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/dbx"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/server/changefeed"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"github.com/dmitrijs2005/geodash/internal/server/repositories/repomanager"
)

type Store struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	broker    *changefeed.Broker
	publisher changefeed.Publisher
	logger    logging.Logger
}

// New builds a Store. publisher announces successful writes; it is nil when
// the database raises change notifications on its own.
func New(db *sql.DB, rm repomanager.RepositoryManager, b *changefeed.Broker, publisher changefeed.Publisher, l logging.Logger) *Store {
	return &Store{
		db:        db,
		repos:     rm,
		broker:    b,
		publisher: publisher,
		logger:    l.With("module", "store"),
	}
}

func (s *Store) List(ctx context.Context) ([]*models.UserRecord, error) {
	res, err := s.repos.Users(s.db).List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list", err)
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	res, err := s.repos.Users(s.db).Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	return res, nil
}

func (s *Store) Insert(ctx context.Context, u models.NewUser) (*models.UserRecord, error) {
	res, err := s.repos.Users(s.db).Insert(ctx, u)
	if err != nil {
		return nil, s.fail(ctx, "insert", err)
	}
	s.announce(ctx, changefeed.Event{Op: changefeed.OpInsert, ID: res.ID})
	return res, nil
}

func (s *Store) Update(ctx context.Context, id string, p models.UserPatch) (*models.UserRecord, error) {
	var res *models.UserRecord

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		res, err = s.repos.Users(tx).Update(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	s.announce(ctx, changefeed.Event{Op: changefeed.OpUpdate, ID: id})
	return res, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repos.Users(s.db).Delete(ctx, id); err != nil {
		return s.fail(ctx, "delete", err)
	}
	s.announce(ctx, changefeed.Event{Op: changefeed.OpDelete, ID: id})
	return nil
}

// Subscribe calls onChange at least once after every change to the users
// collection, from any writer. Calls are serialized per subscription and
// carry no payload. The returned func stops delivery; it is idempotent.
func (s *Store) Subscribe(onChange func()) func() {
	ch, unsubscribe := s.broker.Subscribe()

	go func() {
		for range ch {
			onChange()
		}
	}()

	return unsubscribe
}

// announce is best effort: the write already happened, so a feed failure
// only delays other viewers until their next refresh.
func (s *Store) announce(ctx context.Context, ev changefeed.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn(ctx, "change announcement failed", "op", ev.Op, "id", ev.ID, "error", err)
	}
}

func (s *Store) fail(ctx context.Context, op string, err error) error {
	se := toStoreError(op, err)
	if se.Kind == common.StoreUnavailable {
		s.logger.Error(ctx, "store operation failed", "op", op, "error", err)
	}
	return se
}

func toStoreError(op string, err error) *common.StoreError {
	kind := common.StoreUnavailable
	switch {
	case errors.Is(err, common.ErrorNotFound):
		kind = common.StoreNotFound
	case errors.Is(err, common.ErrConstraintViolation):
		kind = common.StoreConstraintViolation
	}
	return &common.StoreError{Kind: kind, Op: op, Err: err}
}
