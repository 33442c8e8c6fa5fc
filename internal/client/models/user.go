// Package models holds the client-side view of user records.
package models

import (
	"time"

	"github.com/dmitrijs2005/geodash/internal/api"
)

// Geo is the location data of an enriched record.
type Geo struct {
	Latitude       float64
	Longitude      float64
	TimeZoneOffset int
}

// User is one row of the dashboard. Geo is nil until the record has been
// enriched.
type User struct {
	ID        string
	Name      string
	ZipCode   string
	Geo       *Geo
	CreatedAt time.Time
	UpdatedAt time.Time
}

func FromAPI(u *api.User) User {
	out := User{
		ID:        u.ID,
		Name:      u.Name,
		ZipCode:   u.ZipCode,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Geo != nil {
		out.Geo = &Geo{Latitude: u.Geo.Latitude, Longitude: u.Geo.Longitude, TimeZoneOffset: u.Geo.TimeZone}
	}
	return out
}

func FromAPIList(us []*api.User) []User {
	out := make([]User, 0, len(us))
	for _, u := range us {
		if u != nil {
			out = append(out, FromAPI(u))
		}
	}
	return out
}
