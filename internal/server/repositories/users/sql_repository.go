package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/dbx"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const userColumns = `id, name, zip_code, latitude, longitude, time_zone, created_at, updated_at`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
	newID   func() string
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:   uuid.NewString,
	}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.DialectPostgres)
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.DialectSQLite)
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.UserRecord, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, r.q(query))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	result := make([]*models.UserRecord, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapDBError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}

	return result, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, wrapDBError(err)
	}

	return u, nil
}

func (r *SQLRepository) Insert(ctx context.Context, nu models.NewUser) (*models.UserRecord, error) {
	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 `

	u := &models.UserRecord{
		ID:         r.newID(),
		Name:       nu.Name,
		PostalCode: nu.PostalCode,
		Geo:        copyGeo(nu.Geo),
	}
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt

	lat, lon, tz := geoArgs(u.Geo)
	_, err := r.db.ExecContext(ctx, r.q(query), u.ID, u.Name, u.PostalCode, lat, lon, tz, u.CreatedAt)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return u, nil
}

// Update writes name, postal code and updated_at. The geo columns are only
// written when p.Geo is set. updated_at never goes backwards: a patch stamped
// at or before the stored value (a lagging clock) lands just after it, so an
// updated record is always newer than its creation. The stored row is read back afterwards, so
// callers wanting a consistent result should run it inside dbx.WithTx.
func (r *SQLRepository) Update(ctx context.Context, id string, p models.UserPatch) (*models.UserRecord, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}
	updatedAt = updatedAt.UTC()

	var (
		res sql.Result
		err error
	)
	if p.Geo != nil {
		query :=
			`UPDATE users SET name = $2, zip_code = $3, latitude = $4, longitude = $5, time_zone = $6, updated_at = ` + r.laterThanStored("$7") + `
			 WHERE id = $1
			 `
		res, err = r.db.ExecContext(ctx, r.q(query), id, p.Name, p.PostalCode,
			p.Geo.Latitude, p.Geo.Longitude, p.Geo.TimeZoneOffsetSeconds, updatedAt)
	} else {
		query :=
			`UPDATE users SET name = $2, zip_code = $3, updated_at = ` + r.laterThanStored("$4") + `
			 WHERE id = $1
			 `
		res, err = r.db.ExecContext(ctx, r.q(query), id, p.Name, p.PostalCode, updatedAt)
	}
	if err != nil {
		return nil, wrapDBError(err)
	}

	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return r.Get(ctx, id)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	query :=
		`DELETE FROM users
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, r.q(query), id)
	if err != nil {
		return wrapDBError(err)
	}

	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.UserRecord, error) {
	var (
		u        models.UserRecord
		lat, lon sql.NullFloat64
		tz       sql.NullInt64
	)

	if err := s.Scan(&u.ID, &u.Name, &u.PostalCode, &lat, &lon, &tz, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	if lat.Valid && lon.Valid && tz.Valid {
		u.Geo = &models.Geo{Latitude: lat.Float64, Longitude: lon.Float64, TimeZoneOffsetSeconds: int(tz.Int64)}
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	return &u, nil
}

func geoArgs(g *models.Geo) (any, any, any) {
	if g == nil {
		return nil, nil, nil
	}
	return g.Latitude, g.Longitude, g.TimeZoneOffsetSeconds
}

func copyGeo(g *models.Geo) *models.Geo {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// laterThanStored is the updated_at expression for param: the later of the
// new timestamp and the stored one plus the smallest step the backend keeps
// (1µs on Postgres, 1ms on SQLite, which compares timestamps as text).
func (r *SQLRepository) laterThanStored(param string) string {
	if r.dialect == dbx.DialectSQLite {
		return `MAX(` + param + `, strftime('%Y-%m-%d %H:%M:%f+00:00', updated_at, '+0.001 seconds'))`
	}
	return `GREATEST(` + param + `, updated_at + interval '1 microsecond')`
}

// Ids are UUIDs on every backend; anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func wrapDBError(err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("db error: %w: %w", common.ErrConstraintViolation, err)
	}
	return fmt.Errorf("db error: %w", err)
}

// isConstraintViolation recognises integrity errors from both drivers:
// SQLSTATE class 23 for Postgres and the SQLITE_CONSTRAINT family for SQLite.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
