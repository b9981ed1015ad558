package user

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/session"
)

// Service issues profile and favourites calls through the session client.
type Service struct {
	client *session.Client
	log    *zap.Logger
}

// Option adjusts service construction.
type Option func(*Service)

// WithLogger wires a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService builds a user service on top of client.
func NewService(client *session.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile fetches the authenticated user's record.
func (s *Service) Profile(ctx context.Context) (User, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.PathProfile,
	})
	if err != nil {
		return User{}, err
	}
	return api.DecodeData[User](resp)
}

// UpdateProfile applies params and returns the updated record.
func (s *Service) UpdateProfile(ctx context.Context, params UpdateParams) (User, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodPut,
		Path:   api.PathProfile,
		Body:   params,
	})
	if err != nil {
		return User{}, err
	}
	return api.DecodeData[User](resp)
}

// UploadAvatar sends an image as a multipart form and returns the updated
// profile. filename decides the part's reported name; content is the raw
// image bytes.
func (s *Service) UploadAvatar(ctx context.Context, filename string, content []byte) (User, error) {
	if len(content) == 0 {
		return User{}, fmt.Errorf("user: avatar content is empty")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", filename)
	if err != nil {
		return User{}, fmt.Errorf("user: build avatar form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return User{}, fmt.Errorf("user: write avatar form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return User{}, fmt.Errorf("user: close avatar form: %w", err)
	}
	resp, err := s.client.Do(ctx, &session.Request{
		Method:      http.MethodPost,
		Path:        api.PathUploadAvatar,
		RawBody:     buf.Bytes(),
		ContentType: writer.FormDataContentType(),
	})
	if err != nil {
		return User{}, err
	}
	updated, err := api.DecodeData[User](resp)
	if err != nil {
		return User{}, err
	}
	s.log.Info("avatar uploaded",
		zap.String("filename", filename), zap.Int("bytes", len(content)))
	return updated, nil
}

// Favourites lists the hotels userID has bookmarked. Pass Me for the
// authenticated user.
func (s *Service) Favourites(ctx context.Context, userID string) ([]Favourite, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.FavouritesPath(userID),
	})
	if err != nil {
		return nil, err
	}
	return api.DecodeData[[]Favourite](resp)
}

// AddFavourite bookmarks a hotel. A duplicate bookmark comes back as a
// validation error with the server's message; it is surfaced, not masked.
func (s *Service) AddFavourite(ctx context.Context, userID string, hotelID int) error {
	_, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodPost,
		Path:   api.FavouritesPath(userID),
		Body:   map[string]int{"hotelId": hotelID},
	})
	if err != nil {
		return err
	}
	s.log.Debug("hotel favourited", zap.Int("hotel_id", hotelID))
	return nil
}

// RemoveFavourite drops a bookmark.
func (s *Service) RemoveFavourite(ctx context.Context, userID string, hotelID int) error {
	_, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodDelete,
		Path:   api.FavouritesPath(userID),
		Body:   map[string]int{"hotelId": hotelID},
	})
	if err != nil {
		return err
	}
	s.log.Debug("favourite removed", zap.Int("hotel_id", hotelID))
	return nil
}

// IsFavourite asks whether a hotel is already bookmarked, for toggles that
// need the authoritative state after an ambiguous failure.
func (s *Service) IsFavourite(ctx context.Context, userID string, hotelID int) (bool, error) {
	query := url.Values{}
	query.Set("hotelId", strconv.Itoa(hotelID))
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.FavouriteCheckPath(userID),
		Query:  query,
	})
	if err != nil {
		return false, err
	}
	var out struct {
		IsFavourite bool `json:"isFavourite"`
	}
	if err := resp.Decode(&out); err != nil {
		return false, err
	}
	return out.IsFavourite, nil
}
