// Package user covers the authenticated user's profile, avatar upload and
// favourite-hotel management.
package user

import (
	"time"

	"github.com/tripwell/tripwell-go/pkg/hotel"
)

// Me is the literal user id the server accepts for the authenticated user.
const Me = "me"

// User is the profile record.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateParams are the profile fields a user may change.
type UpdateParams struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Favourite links a user to a hotel they bookmarked.
type Favourite struct {
	ID      int         `json:"id"`
	HotelID int         `json:"hotelId"`
	Hotel   hotel.Hotel `json:"hotel"`
}
