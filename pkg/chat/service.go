package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/session"
)

// Service issues chat-room API calls through the session client.
type Service struct {
	client   *session.Client
	log      *zap.Logger
	returnTo string
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

// WithReturnTo sets the destination carried on auth-required events raised
// by this service's calls, so the UI can come back to the chat surface
// after a re-login.
func WithReturnTo(dest string) Option {
	return func(s *Service) { s.returnTo = dest }
}

// NewService builds a chat service on top of client.
func NewService(client *session.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rooms lists the caller's chat rooms, newest activity first.
func (s *Service) Rooms(ctx context.Context, page, limit int) ([]Room, *api.Paginate, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	resp, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodGet,
		Path:     api.PathChatRooms,
		Query:    query,
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return nil, nil, err
	}
	rooms, err := api.DecodeData[[]Room](resp)
	if err != nil {
		return nil, nil, err
	}
	return rooms, resp.Paginate, nil
}

// Room fetches a single room with its participants.
func (s *Service) Room(ctx context.Context, id int) (Room, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodGet,
		Path:     api.ChatRoomPath(id),
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return Room{}, err
	}
	return api.DecodeData[Room](resp)
}

// CreateRoom opens a conversation with a hotel.
func (s *Service) CreateRoom(ctx context.Context, hotelID int) (Room, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodPost,
		Path:     api.PathChatRooms,
		Body:     map[string]int{"hotelId": hotelID},
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return Room{}, err
	}
	room, err := api.DecodeData[Room](resp)
	if err != nil {
		return Room{}, err
	}
	s.log.Info("chat room opened",
		zap.Int("room_id", room.ID), zap.Int("hotel_id", hotelID))
	return room, nil
}

// DeleteRoom removes a conversation.
func (s *Service) DeleteRoom(ctx context.Context, id int) error {
	_, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodDelete,
		Path:     api.ChatRoomPath(id),
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return err
	}
	s.log.Info("chat room deleted", zap.Int("room_id", id))
	return nil
}

// Messages fetches one page of a room's history. Page 1 holds the most
// recent messages; higher pages are older.
func (s *Service) Messages(ctx context.Context, roomID, page, limit int) ([]Message, *api.Paginate, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	resp, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodGet,
		Path:     api.ChatRoomMessagesPath(roomID),
		Query:    query,
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return nil, nil, err
	}
	messages, err := api.DecodeData[[]Message](resp)
	if err != nil {
		return nil, nil, err
	}
	return messages, resp.Paginate, nil
}

// SendMessage posts content into a room and returns the stored message with
// its server-assigned id and timestamp.
func (s *Service) SendMessage(ctx context.Context, roomID int, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyDraft
	}
	resp, err := s.client.Do(ctx, &session.Request{
		Method:   http.MethodPost,
		Path:     api.ChatRoomMessagesPath(roomID),
		Body:     map[string]string{"content": content},
		ReturnTo: s.returnTo,
	})
	if err != nil {
		return Message{}, fmt.Errorf("chat: send message: %w", err)
	}
	msg, err := api.DecodeData[Message](resp)
	if err != nil {
		return Message{}, err
	}
	s.log.Debug("message sent",
		zap.Int("room_id", roomID), zap.Int("message_id", msg.ID))
	return msg, nil
}
