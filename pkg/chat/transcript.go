package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const defaultPageSize = 10

// Transcript maintains a consistent, de-duplicated view of one open room's
// messages across page loads, room switches and sends. Page 1 is the most
// recent page, so older pages are prepended as the user scrolls back.
//
// Fetches never hold the lock; each in-flight operation carries the
// generation it was issued under and its result is discarded when a newer
// OpenRoom has superseded it.
type Transcript struct {
	svc      *Service
	log      *zap.Logger
	pageSize int

	mu          sync.Mutex
	roomID      int
	gen         uint64
	messages    []Message
	currentPage int
	lastPage    int
	loading     bool
	sending     bool
	draft       string
}

// TranscriptOption adjusts loader construction.
type TranscriptOption func(*Transcript)

// WithPageSize overrides the messages-per-page fetch size.
func WithPageSize(n int) TranscriptOption {
	return func(t *Transcript) {
		if n > 0 {
			t.pageSize = n
		}
	}
}

// WithTranscriptLogger wires a structured logger.
func WithTranscriptLogger(log *zap.Logger) TranscriptOption {
	return func(t *Transcript) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTranscript builds a loader on top of svc.
func NewTranscript(svc *Service, opts ...TranscriptOption) *Transcript {
	t := &Transcript{
		svc:      svc,
		log:      zap.NewNop(),
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OpenRoom resets local state and loads the room's first (most recent)
// page. When two opens race, the later call wins: the earlier fetch's
// result is discarded at resolution time.
func (t *Transcript) OpenRoom(ctx context.Context, roomID int) error {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.roomID = roomID
	t.messages = nil
	t.currentPage = 1
	t.lastPage = 1
	t.loading = true
	t.mu.Unlock()

	messages, paginate, err := t.svc.Messages(ctx, roomID, 1, t.pageSize)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		// A newer OpenRoom superseded this load.
		return nil
	}
	t.loading = false
	if err != nil {
		return err
	}
	t.messages = append([]Message(nil), messages...)
	t.currentPage = 1
	t.lastPage = 1
	if paginate != nil && paginate.LastPage > 1 {
		t.lastPage = paginate.LastPage
	}
	return nil
}

// LoadOlder fetches the next older page and prepends it. It reports whether
// a fetch was issued: false with a nil error means the loader was busy or no
// older pages remain.
func (t *Transcript) LoadOlder(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.roomID == 0 {
		t.mu.Unlock()
		return false, ErrNoRoom
	}
	if t.loading || t.currentPage >= t.lastPage {
		t.mu.Unlock()
		return false, nil
	}
	gen := t.gen
	roomID := t.roomID
	next := t.currentPage + 1
	t.loading = true
	t.mu.Unlock()

	messages, paginate, err := t.svc.Messages(ctx, roomID, next, t.pageSize)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		// The open room changed while this page was in flight.
		return false, nil
	}
	t.loading = false
	if err != nil {
		return false, err
	}
	t.messages = mergeOlder(messages, t.messages)
	t.currentPage = next
	if paginate != nil && paginate.LastPage >= next {
		t.lastPage = paginate.LastPage
	}
	return true, nil
}

// HandleScroll is the viewport trigger: an offset of zero (top of the
// transcript) starts an older-page load when pages remain. The busy-guard
// inside LoadOlder keeps rapid scroll events from amplifying into duplicate
// fetches.
func (t *Transcript) HandleScroll(ctx context.Context, offsetTop int) (bool, error) {
	if offsetTop != 0 {
		return false, nil
	}
	return t.LoadOlder(ctx)
}

// SetDraft replaces the message input buffer.
func (t *Transcript) SetDraft(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = content
}

// Draft returns the current input buffer.
func (t *Transcript) Draft() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// Send posts the draft into the open room. The server's stored message is
// appended once acknowledged; nothing is inserted speculatively. On failure
// the draft is preserved so the user can retry.
func (t *Transcript) Send(ctx context.Context) (Message, error) {
	t.mu.Lock()
	content := strings.TrimSpace(t.draft)
	if content == "" {
		t.mu.Unlock()
		return Message{}, ErrEmptyDraft
	}
	if t.roomID == 0 {
		t.mu.Unlock()
		return Message{}, ErrNoRoom
	}
	if t.sending {
		t.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	gen := t.gen
	roomID := t.roomID
	t.sending = true
	t.mu.Unlock()

	msg, err := t.svc.SendMessage(ctx, roomID, content)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sending = false
	if err != nil {
		// Keep the draft for a retry.
		return Message{}, err
	}
	t.draft = ""
	if t.gen == gen {
		t.messages = append(t.messages, msg)
	} else {
		t.log.Debug("message delivered to a room no longer open",
			zap.Int("room_id", roomID), zap.Int("message_id", msg.ID))
	}
	return msg, nil
}

// Messages returns a copy of the transcript in its current order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Room returns the id of the open room, zero when none is open.
func (t *Transcript) Room() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.roomID
}

// Pages returns the current cursor position.
func (t *Transcript) Pages() (current, last int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentPage, t.lastPage
}

// CanLoadOlder reports whether older pages remain and no load is running.
func (t *Transcript) CanLoadOlder() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.loading && t.currentPage < t.lastPage
}

// Loading reports whether a page fetch is in flight.
func (t *Transcript) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// mergeOlder prepends an older page, dropping any message already present.
func mergeOlder(older, existing []Message) []Message {
	if len(existing) == 0 {
		return append([]Message(nil), older...)
	}
	seen := make(map[int]struct{}, len(existing))
	for _, msg := range existing {
		seen[msg.ID] = struct{}{}
	}
	merged := make([]Message, 0, len(older)+len(existing))
	for _, msg := range older {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		merged = append(merged, msg)
	}
	return append(merged, existing...)
}
