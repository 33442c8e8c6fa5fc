package workflow

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/server/models"
)

type fakeGeo struct {
	mu      sync.Mutex
	calls   []string
	results map[string]models.Geo
	err     error
}

func newFakeGeo() *fakeGeo {
	return &fakeGeo{results: map[string]models.Geo{
		"90210": {Latitude: 34.09, Longitude: -118.4065, TimeZoneOffsetSeconds: -28800},
		"37643": {Latitude: 36.35, Longitude: -82.21, TimeZoneOffsetSeconds: -18000},
	}}
}

func (f *fakeGeo) Lookup(_ context.Context, postalCode string) (models.Geo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, postalCode)
	if f.err != nil {
		return models.Geo{}, f.err
	}
	g, ok := f.results[postalCode]
	if !ok {
		return models.Geo{}, &common.GeoError{Kind: common.GeoNotFound, PostalCode: postalCode}
	}
	return g, nil
}

func (f *fakeGeo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStore struct {
	mu        sync.Mutex
	seq       int
	records   map[string]*models.UserRecord
	inserts   []models.NewUser
	patches   []models.UserPatch
	calls     int
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*models.UserRecord{}}
}

func (f *fakeStore) seed(r models.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := r
	f.records[r.ID] = &c
}

func (f *fakeStore) List(context.Context) ([]*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]*models.UserRecord, 0, len(f.records))
	for _, r := range f.records {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	r, ok := f.records[id]
	if !ok {
		return nil, &common.StoreError{Kind: common.StoreNotFound, Op: "get"}
	}
	c := *r
	return &c, nil
}

func (f *fakeStore) Insert(_ context.Context, u models.NewUser) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inserts = append(f.inserts, u)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.seq++
	now := time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	r := &models.UserRecord{ID: "u-" + strconv.Itoa(f.seq), Name: u.Name, PostalCode: u.PostalCode, Geo: u.Geo, CreatedAt: now, UpdatedAt: now}
	f.records[r.ID] = r
	c := *r
	return &c, nil
}

func (f *fakeStore) Update(_ context.Context, id string, p models.UserPatch) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.patches = append(f.patches, p)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.records[id]
	if !ok {
		return nil, &common.StoreError{Kind: common.StoreNotFound, Op: "update"}
	}
	r.Name, r.PostalCode, r.UpdatedAt = p.Name, p.PostalCode, p.UpdatedAt
	if p.Geo != nil {
		g := *p.Geo
		r.Geo = &g
	}
	c := *r
	return &c, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.records[id]; !ok {
		return &common.StoreError{Kind: common.StoreNotFound, Op: "delete"}
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) Subscribe(func()) func() { return func() {} }

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) record(id string) *models.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil
	}
	c := *r
	if r.Geo != nil {
		g := *r.Geo
		c.Geo = &g
	}
	return &c
}
