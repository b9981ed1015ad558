// Package hotel covers the hotel catalogue: paginated search, detail
// lookup, the admin CRUD surface and chat-room resolution.
package hotel

import (
	"encoding/json"
	"time"
)

// Phone is one contact number attached to a hotel.
type Phone struct {
	PhoneNumber string `json:"phoneNumber"`
	PhoneType   string `json:"phoneType"`
}

// Hotel is the full catalogue record.
type Hotel struct {
	ID              int             `json:"id"`
	HotelBedsID     int             `json:"hotelBedsId,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Address         string          `json:"address"`
	PostalCode      string          `json:"postalCode"`
	Email           string          `json:"email"`
	Phones          []Phone         `json:"phones"`
	City            string          `json:"city"`
	CountryCode     string          `json:"countryCode"`
	StateCode       string          `json:"stateCode"`
	DestinationCode string          `json:"destinationCode"`
	ZoneCode        string          `json:"zoneCode"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	Category        string          `json:"category"`
	Images          []string        `json:"images"`
	LastUpdated     string          `json:"lastUpdated,omitempty"`
	Status          string          `json:"status"`
	CustomData      json.RawMessage `json:"customData,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// SearchParams drive the paginated hotel listing.
type SearchParams struct {
	Search  string
	Page    int
	PerPage int
}
