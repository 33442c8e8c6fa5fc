package api

import (
	"time"

	"github.com/dmitrijs2005/geodash/internal/server/models"
)

type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  int     `json:"time_zone"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ZipCode   string    `json:"zip_code"`
	Geo       *Geo      `json:"geo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type GetUserResponse struct {
	User *User `json:"user"`
}

type CreateUserRequest struct {
	Name    string `json:"name"`
	ZipCode string `json:"zip_code"`
}

type CreateUserResponse struct {
	User *User `json:"user"`
}

type UpdateUserRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ZipCode         string `json:"zip_code"`
	OriginalZipCode string `json:"original_zip_code"`
}

type UpdateUserResponse struct {
	User *User `json:"user"`
}

type DeleteUserRequest struct {
	ID string `json:"id"`
}

type DeleteUserResponse struct{}

type WatchUsersRequest struct{}

// ChangeEvent tells a watcher that the users collection changed. Op and ID
// are hints; receivers re-list.
type ChangeEvent struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// FromRecord converts a stored record to its wire form.
func FromRecord(r *models.UserRecord) *User {
	if r == nil {
		return nil
	}
	u := &User{
		ID:        r.ID,
		Name:      r.Name,
		ZipCode:   r.PostalCode,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Geo != nil {
		u.Geo = &Geo{Latitude: r.Geo.Latitude, Longitude: r.Geo.Longitude, TimeZone: r.Geo.TimeZoneOffsetSeconds}
	}
	return u
}

func FromRecords(rs []*models.UserRecord) []*User {
	out := make([]*User, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRecord(r))
	}
	return out
}
