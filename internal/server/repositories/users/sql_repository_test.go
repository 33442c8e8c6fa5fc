package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "7f3c1a52-2f57-4d4e-9a55-0d9b1f1e2a10"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	repo.newID = func() string { return testID }
	return repo, mock, db
}

var userCols = []string{"id", "name", "zip_code", "latitude", "longitude", "time_zone", "created_at", "updated_at"}

func TestList_OrdersByCreatedAtDesc(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*zip_code,\s*latitude,\s*longitude,\s*time_zone,\s*created_at,\s*updated_at\s+FROM\s+users\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s*$`

	rows := sqlmock.NewRows(userCols).
		AddRow(testID, "Jane Doe", "90210", 34.09, -118.4065, int64(-28800), fixedNow, fixedNow).
		AddRow("0b6f4c1e-1111-4d4e-9a55-0d9b1f1e2a10", "John Roe", "37643", nil, nil, nil, fixedNow.Add(-time.Hour), fixedNow.Add(-time.Hour))
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Jane Doe", got[0].Name)
	require.NotNil(t, got[0].Geo)
	assert.Equal(t, models.Geo{Latitude: 34.09, Longitude: -118.4065, TimeZoneOffsetSeconds: -28800}, *got[0].Geo)
	assert.Nil(t, got[1].Geo, "null geo columns must produce no geo")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT .* FROM\s+users`).WillReturnRows(sqlmock.NewRows(userCols))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT .* FROM\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.False(t, errors.Is(err, common.ErrConstraintViolation))
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs(testID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(testID, "Jane Doe", "90210", nil, nil, nil, fixedNow, fixedNow))

	got, err := repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, got.ID)
	assert.Equal(t, fixedNow, got.CreatedAt)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id`).WithArgs(testID).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), testID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_MalformedIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "no query must be issued")
}

func TestInsert_WithGeo(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*zip_code,\s*latitude,\s*longitude,\s*time_zone,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$7\)\s*$`
	mock.ExpectExec(q).
		WithArgs(testID, "Jane Doe", "90210", 34.09, -118.4065, -28800, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	geo := &models.Geo{Latitude: 34.09, Longitude: -118.4065, TimeZoneOffsetSeconds: -28800}
	got, err := repo.Insert(context.Background(), models.NewUser{Name: "Jane Doe", PostalCode: "90210", Geo: geo})
	require.NoError(t, err)

	assert.Equal(t, testID, got.ID)
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Equal(t, fixedNow, got.UpdatedAt)
	assert.Equal(t, *geo, *got.Geo)
	assert.NotSame(t, geo, got.Geo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_WithoutGeoPassesNulls(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(testID, "Jane Doe", "90210", nil, nil, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Insert(context.Background(), models.NewUser{Name: "Jane Doe", PostalCode: "90210"})
	require.NoError(t, err)
	assert.Nil(t, got.Geo)
}

func TestInsert_ConstraintViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23514", Message: "check constraint"})

	_, err := repo.Insert(context.Background(), models.NewUser{Name: "Jane Doe", PostalCode: "90210"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConstraintViolation)
}

func TestInsert_OtherPgErrorIsNotConstraint(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "57P01", Message: "admin shutdown"})

	_, err := repo.Insert(context.Background(), models.NewUser{Name: "Jane Doe", PostalCode: "90210"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrConstraintViolation))
}

func TestUpdate_WithoutGeoLeavesGeoColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updatedAt := fixedNow.Add(time.Minute)
	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*zip_code\s*=\s*\$3,\s*updated_at\s*=\s*GREATEST\(\$4,\s*updated_at\s*\+\s*interval\s*'1 microsecond'\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs(testID, "Jane Roe", "90210", updatedAt).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id\s*=\s*\$1`).WithArgs(testID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(testID, "Jane Roe", "90210", 34.09, -118.4065, int64(-28800), fixedNow, updatedAt))

	got, err := repo.Update(context.Background(), testID, models.UserPatch{Name: "Jane Roe", PostalCode: "90210", UpdatedAt: updatedAt})
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", got.Name)
	require.NotNil(t, got.Geo)
	assert.Equal(t, 34.09, got.Geo.Latitude)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_WithGeo(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*zip_code\s*=\s*\$3,\s*latitude\s*=\s*\$4,\s*longitude\s*=\s*\$5,\s*time_zone\s*=\s*\$6,\s*updated_at\s*=\s*GREATEST\(\$7,\s*updated_at\s*\+\s*interval\s*'1 microsecond'\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs(testID, "Jane Doe", "37643", 36.35, -82.21, -18000, fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id`).WithArgs(testID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(testID, "Jane Doe", "37643", 36.35, -82.21, int64(-18000), fixedNow, fixedNow))

	patch := models.UserPatch{
		Name:       "Jane Doe",
		PostalCode: "37643",
		Geo:        &models.Geo{Latitude: 36.35, Longitude: -82.21, TimeZoneOffsetSeconds: -18000},
	}
	got, err := repo.Update(context.Background(), testID, patch)
	require.NoError(t, err)
	assert.Equal(t, -18000, got.Geo.TimeZoneOffsetSeconds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRowsIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), testID, models.UserPatch{Name: "x", PostalCode: "90210"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), testID))

	mock.ExpectExec(q).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), testID), common.ErrorNotFound)

	mock.ExpectExec(q).WithArgs(testID).WillReturnError(errors.New("conn reset"))
	err := repo.Delete(context.Background(), testID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}
