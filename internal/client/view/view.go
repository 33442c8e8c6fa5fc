// Package view holds the dashboard's ViewState: the current listing, the
// record being deleted and the last error, kept fresh by re-listing
// whenever the server signals a change.
//
// Writes never splice their result into Records. A successful write only
// asks for a re-list, so the listing always comes from the server.
package view

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
)

var ErrMounted = errors.New("view already mounted")

// Backend is the server surface the view drives.
type Backend interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, name, zipCode string) (*models.User, error)
	Update(ctx context.Context, id, name, zipCode, originalZipCode string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, onChange func()) error
}

// Snapshot is a copy of the view state at one point in time.
type Snapshot struct {
	Records           []models.User
	PendingDeletionID string
	LastError         error
	Loading           bool
	LastRefresh       time.Time
}

type ViewState struct {
	backend   Backend
	logger    logging.Logger
	staleTime time.Duration
	now       func() time.Time

	mu        sync.Mutex
	state     Snapshot
	listErr   bool
	listeners []func(Snapshot)

	relist chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*ViewState)

// WithStaleTime sets how long a listing stays fresh before the view
// re-lists on its own. Zero disables the timer.
func WithStaleTime(d time.Duration) Option {
	return func(v *ViewState) { v.staleTime = d }
}

func WithClock(now func() time.Time) Option {
	return func(v *ViewState) { v.now = now }
}

func New(b Backend, l logging.Logger, opts ...Option) *ViewState {
	v := &ViewState{
		backend:   b,
		logger:    l.With("module", "view"),
		staleTime: 5 * time.Minute,
		now:       time.Now,
		relist:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Mount starts the re-list worker, the change subscription and the stale
// timer, and queues the first listing.
func (v *ViewState) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return ErrMounted
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	v.wg.Add(2)
	go v.worker(ctx)
	go v.watch(ctx)

	if v.staleTime > 0 {
		v.wg.Add(1)
		go v.staleTimer(ctx)
	}

	v.Refresh()
	return nil
}

// Unmount stops everything Mount started and waits for it to finish.
func (v *ViewState) Unmount() {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	v.wg.Wait()
}

// Refresh queues a re-list. Requests made while one is already queued
// collapse into it.
func (v *ViewState) Refresh() {
	select {
	case v.relist <- struct{}{}:
	default:
	}
}

// OnChange registers fn to be called with a fresh snapshot after every
// state change.
func (v *ViewState) OnChange(fn func(Snapshot)) {
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

func (v *ViewState) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *ViewState) snapshotLocked() Snapshot {
	s := v.state
	s.Records = slices.Clone(v.state.Records)
	return s
}

// update applies fn under the lock and notifies listeners.
func (v *ViewState) update(fn func(s *Snapshot)) {
	v.mu.Lock()
	fn(&v.state)
	snap := v.snapshotLocked()
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (v *ViewState) worker(ctx context.Context) {
	defer v.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.relist:
			v.load(ctx)
		}
	}
}

func (v *ViewState) watch(ctx context.Context) {
	defer v.wg.Done()
	if err := v.backend.Watch(ctx, v.Refresh); err != nil {
		v.logger.Warn(ctx, "change feed closed", "error", err)
	}
}

func (v *ViewState) staleTimer(ctx context.Context) {
	defer v.wg.Done()
	t := time.NewTicker(v.staleTime)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v.Refresh()
		}
	}
}

func (v *ViewState) load(ctx context.Context) {
	v.update(func(s *Snapshot) { s.Loading = true })

	users, err := v.backend.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			v.update(func(s *Snapshot) { s.Loading = false })
			return
		}
		v.logger.Warn(ctx, "list failed", "error", err)
		v.update(func(s *Snapshot) {
			s.Loading = false
			s.LastError = err
			v.listErr = true
		})
		return
	}

	slices.SortStableFunc(users, func(a, b models.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	v.update(func(s *Snapshot) {
		s.Records = users
		s.Loading = false
		s.LastRefresh = v.now()
		// A listing only clears errors a listing caused.
		if v.listErr {
			s.LastError = nil
			v.listErr = false
		}
	})
}

func (v *ViewState) setError(err error) {
	v.update(func(s *Snapshot) {
		s.LastError = err
		v.listErr = false
	})
}

// Create validates the input, asks the server to create the record and
// queues a re-list on success.
func (v *ViewState) Create(ctx context.Context, name, zipCode string) error {
	name, zipCode, err := common.ValidateUserInput(name, zipCode)
	if err != nil {
		v.setError(err)
		return err
	}
	v.setError(nil)

	if _, err := v.backend.Create(ctx, name, zipCode); err != nil {
		v.setError(err)
		return err
	}

	v.Refresh()
	return nil
}

// Update is Create for an existing record. originalZipCode is the code the
// record had when editing started; the server skips the location lookup
// when it is unchanged.
func (v *ViewState) Update(ctx context.Context, id, name, zipCode, originalZipCode string) error {
	name, zipCode, err := common.ValidateUserInput(name, zipCode)
	if err != nil {
		v.setError(err)
		return err
	}
	v.setError(nil)

	if _, err := v.backend.Update(ctx, id, name, zipCode, originalZipCode); err != nil {
		v.setError(err)
		return err
	}

	v.Refresh()
	return nil
}

// Delete marks id as pending for the duration of the call.
func (v *ViewState) Delete(ctx context.Context, id string) error {
	v.update(func(s *Snapshot) {
		s.PendingDeletionID = id
		s.LastError = nil
		v.listErr = false
	})

	err := v.backend.Delete(ctx, id)

	v.update(func(s *Snapshot) {
		s.PendingDeletionID = ""
		if err != nil {
			s.LastError = err
		}
	})
	if err != nil {
		return err
	}

	v.Refresh()
	return nil
}

// Find returns the listed record with id.
func (v *ViewState) Find(id string) (models.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, u := range v.state.Records {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}
