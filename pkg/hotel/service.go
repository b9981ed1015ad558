package hotel

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/chat"
	"github.com/tripwell/tripwell-go/pkg/session"
)

// Service issues hotel API calls through the session client. Create, Update
// and Delete require an admin role server-side; the client surfaces the
// server's validation message when the role is missing.
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

// NewService builds a hotel service on top of client.
func NewService(client *session.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search lists hotels matching params, one page at a time.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Hotel, *api.Paginate, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.PathHotels,
		Query:  query,
	})
	if err != nil {
		return nil, nil, err
	}
	hotels, err := api.DecodeData[[]Hotel](resp)
	if err != nil {
		return nil, nil, err
	}
	return hotels, resp.Paginate, nil
}

// Get fetches a single hotel.
func (s *Service) Get(ctx context.Context, id int) (Hotel, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.HotelPath(id),
	})
	if err != nil {
		return Hotel{}, err
	}
	return api.DecodeData[Hotel](resp)
}

// Create adds a hotel to the catalogue.
func (s *Service) Create(ctx context.Context, h Hotel) (Hotel, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodPost,
		Path:   api.PathHotels,
		Body:   h,
	})
	if err != nil {
		return Hotel{}, err
	}
	created, err := api.DecodeData[Hotel](resp)
	if err != nil {
		return Hotel{}, err
	}
	s.log.Info("hotel created", zap.Int("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Update replaces a hotel's editable fields.
func (s *Service) Update(ctx context.Context, id int, h Hotel) (Hotel, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodPut,
		Path:   api.HotelPath(id),
		Body:   h,
	})
	if err != nil {
		return Hotel{}, err
	}
	updated, err := api.DecodeData[Hotel](resp)
	if err != nil {
		return Hotel{}, err
	}
	s.log.Info("hotel updated", zap.Int("id", id))
	return updated, nil
}

// Delete removes a hotel.
func (s *Service) Delete(ctx context.Context, id int) error {
	_, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodDelete,
		Path:   api.HotelPath(id),
	})
	if err != nil {
		return err
	}
	s.log.Info("hotel deleted", zap.Int("id", id))
	return nil
}

// ChatRoom resolves the chat room for a hotel, creating it server-side on
// first contact.
func (s *Service) ChatRoom(ctx context.Context, id int) (chat.Room, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.HotelChatRoomPath(id),
	})
	if err != nil {
		return chat.Room{}, err
	}
	return api.DecodeData[chat.Room](resp)
}
