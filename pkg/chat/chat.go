// Package chat exposes the chat-room endpoints and the paginated transcript
// loader that keeps one open room's message history consistent while the
// user scrolls back through older pages.
package chat

import (
	"errors"
	"time"
)

var (
	// ErrNoRoom indicates a transcript operation before OpenRoom.
	ErrNoRoom = errors.New("chat: no room open")
	// ErrEmptyDraft indicates Send was called with nothing to send.
	ErrEmptyDraft = errors.New("chat: message draft is empty")
	// ErrSendInFlight indicates a previous send has not resolved yet.
	ErrSendInFlight = errors.New("chat: a send is already in flight")
)

// Participant is the sender metadata embedded in rooms and messages.
type Participant struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// RoomHotel is the hotel summary attached to a room.
type RoomHotel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Message is one chat message. Messages are immutable once created; the id
// and timestamp are server-assigned.
type Message struct {
	ID         int          `json:"id"`
	ChatRoomID int          `json:"chatRoomId"`
	SenderID   int          `json:"senderId"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	Sender     *Participant `json:"sender,omitempty"`
}

// Room is a conversation between a user and a hotel. Messages, when present
// on list responses, is a recent-message preview rather than the full
// transcript.
type Room struct {
	ID        int          `json:"id"`
	UserID    int          `json:"userId"`
	HotelID   int          `json:"hotelId"`
	User      *Participant `json:"user,omitempty"`
	Hotel     *RoomHotel   `json:"hotel,omitempty"`
	Messages  []Message    `json:"messages,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
