package api

import (
	"encoding/json"
	"fmt"
)

// Response is the envelope every TripWell endpoint wraps its payload in.
// Data is kept raw so callers can decode it into their own types; MetaData is
// only populated by the auth endpoints and carries the token pair.
type Response struct {
	Status   int             `json:"status"`
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	MetaData *TokenMeta      `json:"metaData,omitempty"`
	Paginate *Paginate       `json:"paginate,omitempty"`
}

// TokenMeta carries the credential pair issued by login, register and
// refresh responses.
type TokenMeta struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Paginate describes the cursor block attached to list responses.
type Paginate struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// HasMore reports whether pages beyond CurrentPage remain.
func (p *Paginate) HasMore() bool {
	if p == nil {
		return false
	}
	return p.CurrentPage < p.LastPage
}

// Decode unmarshals the envelope payload into out.
func (r *Response) Decode(out any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("api: response has no data payload")
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("api: decode data: %w", err)
	}
	return nil
}

// DecodeData unmarshals the envelope payload into a value of type T.
func DecodeData[T any](r *Response) (T, error) {
	var out T
	if r == nil {
		return out, fmt.Errorf("api: nil response")
	}
	err := r.Decode(&out)
	return out, err
}
