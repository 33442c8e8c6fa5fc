// Package models holds the server-side domain records.
package models

import "time"

// Geo is the location attached to a user after enrichment. It is either
// present as a whole or absent: the three values are never stored apart.
type Geo struct {
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	TimeZoneOffsetSeconds int     `json:"time_zone"`
}

// UserRecord is a persisted user.
type UserRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PostalCode string    `json:"zip_code"`
	Geo        *Geo      `json:"geo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser is the insert payload. The store assigns ID and timestamps.
type NewUser struct {
	Name       string
	PostalCode string
	Geo        *Geo
}

// UserPatch is the update payload. A nil Geo leaves the stored location as
// it is.
type UserPatch struct {
	Name       string
	PostalCode string
	Geo        *Geo
	UpdatedAt  time.Time
}
