// Package workflow implements the create/update/delete state machine for
// user records: validate, enrich with location data when needed, persist.
//
// Each call runs one operation from Idle to Done or Failed. Nothing is
// retried and nothing is locked; concurrent operations on the same record
// are settled by the store, last write wins.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/server/models"
)

// GeoLookup resolves a postal code. Failures are *common.GeoError.
type GeoLookup interface {
	Lookup(ctx context.Context, postalCode string) (models.Geo, error)
}

// UserStore persists records and signals changes. Failures are
// *common.StoreError.
type UserStore interface {
	List(ctx context.Context) ([]*models.UserRecord, error)
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Insert(ctx context.Context, u models.NewUser) (*models.UserRecord, error)
	Update(ctx context.Context, id string, p models.UserPatch) (*models.UserRecord, error)
	Delete(ctx context.Context, id string) error
	Subscribe(onChange func()) func()
}

type Service struct {
	geo      GeoLookup
	store    UserStore
	logger   logging.Logger
	now      func() time.Time
	observer Observer
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(g GeoLookup, st UserStore, l logging.Logger, opts ...Option) *Service {
	s := &Service{
		geo:    g,
		store:  st,
		logger: l.With("module", "workflow"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates the input, looks the postal code up and inserts the
// record with its location. A failed lookup persists nothing.
func (s *Service) Create(ctx context.Context, name, postalCode string) (*models.UserRecord, error) {
	op := s.begin(ctx, OpCreate, "")

	op.to(Validating)
	name, postalCode, err := common.ValidateUserInput(name, postalCode)
	if err != nil {
		return nil, op.fail(err)
	}

	op.to(GeoEnriching)
	geo, err := s.geo.Lookup(ctx, postalCode)
	if err != nil {
		return nil, op.fail(asGeoError(postalCode, err))
	}

	op.to(Persisting)
	rec, err := s.store.Insert(ctx, models.NewUser{Name: name, PostalCode: postalCode, Geo: &geo})
	if err != nil {
		return nil, op.fail(asStoreError("insert", err))
	}

	op.id = rec.ID
	op.to(Done)
	return rec, nil
}

// Update validates the input and writes name and postal code. The location
// is looked up again only when postalCode differs from originalPostalCode;
// otherwise the stored location is left untouched.
func (s *Service) Update(ctx context.Context, id, name, postalCode, originalPostalCode string) (*models.UserRecord, error) {
	op := s.begin(ctx, OpUpdate, id)

	op.to(Validating)
	name, postalCode, err := common.ValidateUserInput(name, postalCode)
	if err != nil {
		return nil, op.fail(err)
	}

	patch := models.UserPatch{Name: name, PostalCode: postalCode}

	if postalCode != originalPostalCode {
		op.to(GeoEnriching)
		geo, err := s.geo.Lookup(ctx, postalCode)
		if err != nil {
			return nil, op.fail(asGeoError(postalCode, err))
		}
		patch.Geo = &geo
	}

	op.to(Persisting)
	patch.UpdatedAt = s.now()
	rec, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, op.fail(asStoreError("update", err))
	}

	op.to(Done)
	return rec, nil
}

// Delete removes the record. There is no validation and no lookup.
func (s *Service) Delete(ctx context.Context, id string) error {
	op := s.begin(ctx, OpDelete, id)

	op.to(Persisting)
	if err := s.store.Delete(ctx, id); err != nil {
		return op.fail(asStoreError("delete", err))
	}

	op.to(Done)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.UserRecord, error) {
	res, err := s.store.List(ctx)
	if err != nil {
		return nil, asStoreError("list", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	res, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, asStoreError("get", err)
	}
	return res, nil
}

// Subscribe forwards to the store's change feed.
func (s *Service) Subscribe(onChange func()) func() {
	return s.store.Subscribe(onChange)
}

type operation struct {
	ctx   context.Context
	svc   *Service
	kind  OpKind
	id    string
	state State
}

func (s *Service) begin(ctx context.Context, kind OpKind, id string) *operation {
	return &operation{ctx: ctx, svc: s, kind: kind, id: id, state: Idle}
}

func (o *operation) to(next State) {
	o.emit(next, nil)
}

func (o *operation) fail(err error) error {
	o.emit(Failed, err)
	return err
}

func (o *operation) emit(next State, err error) {
	t := Transition{Op: o.kind, ID: o.id, From: o.state, To: next, Err: err}
	o.state = next

	if err != nil {
		o.svc.logger.Debug(o.ctx, "operation failed", "op", o.kind, "id", o.id, "from", t.From.String(), "error", err)
	} else {
		o.svc.logger.Debug(o.ctx, "operation state", "op", o.kind, "id", o.id, "from", t.From.String(), "to", next.String())
	}

	if o.svc.observer != nil {
		o.svc.observer(t)
	}
}

// asGeoError keeps typed lookup failures and treats anything else,
// including cancellation, as the provider being unavailable.
func asGeoError(postalCode string, err error) error {
	var ge *common.GeoError
	if errors.As(err, &ge) {
		return ge
	}
	return &common.GeoError{Kind: common.GeoUnavailable, PostalCode: postalCode, Err: err}
}

func asStoreError(op string, err error) error {
	var se *common.StoreError
	if errors.As(err, &se) {
		return se
	}
	return &common.StoreError{Kind: common.StoreUnavailable, Op: op, Err: err}
}
