package service

import (
	"context"
	"sync"

	"roomchat/internal/models"
	"roomchat/pkg/transport/types"

	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendText(ctx context.Context, roomID, body string) (*models.Message, error) {
	args := m.Called(ctx, roomID, body)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) SendMedia(ctx context.Context, roomID string, kind models.MessageKind, payload types.MediaPayload, caption string) (*models.Message, error) {
	args := m.Called(ctx, roomID, kind, payload, caption)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) EditMessage(ctx context.Context, roomID, messageID, body string) (*models.Message, error) {
	args := m.Called(ctx, roomID, messageID, body)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	args := m.Called(ctx, roomID, messageID)
	return args.Error(0)
}

func (m *mockClient) SetTyping(ctx context.Context, roomID string, isTyping bool) error {
	args := m.Called(ctx, roomID, isTyping)
	return args.Error(0)
}

func (m *mockClient) FetchHistory(ctx context.Context, roomID, cursor string, limit int) (*models.MessagePage, error) {
	args := m.Called(ctx, roomID, cursor, limit)
	if page := args.Get(0); page != nil {
		return page.(*models.MessagePage), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeChannel is a controllable push channel: tests push events into it and
// observe join/leave bookkeeping.
type fakeChannel struct {
	mu        sync.Mutex
	events    chan types.Event
	joined    int
	left      int
	roomID    string
	joinErr   error
	connected bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (f *fakeChannel) Join(ctx context.Context, roomID string) (<-chan types.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	f.joined++
	f.roomID = roomID
	f.connected = true
	f.events = make(chan types.Event, 16)
	return f.events, nil
}

func (f *fakeChannel) Leave() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events != nil {
		f.left++
		close(f.events)
		f.events = nil
		f.connected = false
		f.roomID = ""
	}
	return nil
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) push(ev types.Event) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	if ch != nil {
		ch <- ev
	}
}

// stubMembership returns fixed roles per user.
type stubMembership struct {
	viewerRole models.Role
	roles      map[string]models.Role
}

func (s stubMembership) ViewerRole(roomID string) models.Role {
	return s.viewerRole
}

func (s stubMembership) AuthorRole(roomID, authorID string) models.Role {
	if role, ok := s.roles[authorID]; ok {
		return role
	}
	return models.RoleMember
}

// recordingPrefs captures which rooms had their tab preference cleared.
type recordingPrefs struct {
	mu      sync.Mutex
	cleared []string
}

func (p *recordingPrefs) ClearLastActiveTab(_ context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, roomID)
	return nil
}

func (p *recordingPrefs) rooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.cleared))
	copy(out, p.cleared)
	return out
}
