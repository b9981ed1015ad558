// Package admin covers the admin-only surfaces: sign-up code issuance and
// the role catalogue.
package admin

import "time"

// Role is one entry of the role catalogue.
type Role struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Issuer identifies the admin who generated a sign-up code.
type Issuer struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignupCode is a one-time registration code gating a privileged role.
// UsedAt and UsedBy stay nil until the code is consumed.
type SignupCode struct {
	ID          int        `json:"id"`
	Code        string     `json:"code"`
	Role        Role       `json:"role"`
	GeneratedBy Issuer     `json:"generatedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UsedAt      *time.Time `json:"usedAt"`
	UsedBy      *string    `json:"usedBy"`
}
