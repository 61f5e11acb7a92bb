package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"roomchat/internal/metrics"
	"roomchat/internal/models"
	"roomchat/internal/privacy"
	"roomchat/internal/retry"
	"roomchat/pkg/transport/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

// PushChannel owns exactly one websocket subscription per room. Join opens
// it, Leave closes it; rapid repeated entry/exit never leaks or duplicates a
// subscription because the whole lifecycle sits behind one mutex.
type PushChannel struct {
	baseURL     string
	authToken   string
	readTimeout time.Duration
	backoff     retry.BackoffConfig
	logger      *logrus.Logger

	mu        sync.Mutex
	roomID    string
	cancel    context.CancelFunc
	events    chan types.Event
	connected bool
	wg        sync.WaitGroup
}

func NewPushChannel(baseURL, authToken string, readTimeout time.Duration, backoff retry.BackoffConfig, logger *logrus.Logger) *PushChannel {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &PushChannel{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		authToken:   authToken,
		readTimeout: readTimeout,
		backoff:     backoff,
		logger:      logger,
	}
}

// Join opens the room subscription and starts the read loop. A second Join
// without an intervening Leave is an error.
func (p *PushChannel) Join(ctx context.Context, roomID string) (<-chan types.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.roomID != "" {
		return nil, fmt.Errorf("already joined room %s", privacy.MaskRoomID(p.roomID))
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	conn, err := p.dial(ctx, roomID)
	if err != nil {
		cancel()
		return nil, err
	}

	p.roomID = roomID
	p.cancel = cancel
	p.events = make(chan types.Event, 64)
	p.connected = true

	p.wg.Add(1)
	go p.readLoop(loopCtx, conn, roomID, p.events)

	p.logger.WithField("room_id", privacy.MaskRoomID(roomID)).Info("Joined room channel")
	return p.events, nil
}

// Leave closes the subscription. Idempotent.
func (p *PushChannel) Leave() error {
	p.mu.Lock()
	if p.roomID == "" {
		p.mu.Unlock()
		return nil
	}
	roomID := p.roomID
	p.roomID = ""
	p.connected = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()

	p.logger.WithField("room_id", privacy.MaskRoomID(roomID)).Info("Left room channel")
	return nil
}

func (p *PushChannel) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *PushChannel) dial(ctx context.Context, roomID string) (*websocket.Conn, error) {
	endpoint := fmt.Sprintf("%s/v1/rooms/%s/channel", p.baseURL, url.PathEscape(roomID))

	opts := &websocket.DialOptions{}
	if p.authToken != "" {
		opts.HTTPHeader = map[string][]string{
			"Authorization": {"Bearer " + p.authToken},
		}
	}

	conn, _, err := websocket.Dial(ctx, endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to dial push channel: %w", err)
	}
	return conn, nil
}

// readLoop reads events until the channel is left. On connection loss it
// reconnects with backoff and emits a channel_restored event so the session
// can reconcile against a fresh history fetch; the transport itself assumes
// no replay from the server.
func (p *PushChannel) readLoop(ctx context.Context, conn *websocket.Conn, roomID string, events chan<- types.Event) {
	defer p.wg.Done()
	defer close(events)

	for {
		err := p.readUntilFailure(ctx, conn, roomID, events)
		_ = conn.Close(websocket.StatusNormalClosure, "leaving")

		if ctx.Err() != nil {
			return
		}

		p.setConnected(false)
		p.logger.WithError(err).WithField("room_id", privacy.MaskRoomID(roomID)).Warn("Push channel disconnected, reconnecting")

		backoff := retry.NewBackoff(p.backoff)
		var newConn *websocket.Conn
		dialErr := backoff.Retry(ctx, func() error {
			var err error
			newConn, err = p.dial(ctx, roomID)
			return err
		})
		if dialErr != nil {
			if ctx.Err() == nil {
				p.logger.WithError(dialErr).Error("Push channel reconnect failed, giving up")
			}
			return
		}

		conn = newConn
		p.setConnected(true)
		metrics.IncrementCounter(metrics.ChannelReconnects, nil)

		select {
		case events <- types.Event{Type: types.EventChannelRestored, RoomID: roomID}:
		case <-ctx.Done():
			return
		}
	}
}

func (p *PushChannel) readUntilFailure(ctx context.Context, conn *websocket.Conn, roomID string, events chan<- types.Event) error {
	for {
		readCtx := ctx
		var cancel context.CancelFunc
		if p.readTimeout > 0 {
			readCtx, cancel = context.WithTimeout(ctx, p.readTimeout)
		}

		var envelope types.Envelope
		err := wsjson.Read(readCtx, conn, &envelope)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			return err
		}

		event, err := decodeEvent(roomID, envelope)
		if err != nil {
			p.logger.WithError(err).WithField("event_type", envelope.Type).Warn("Dropping undecodable push event")
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *PushChannel) setConnected(connected bool) {
	p.mu.Lock()
	p.connected = connected
	p.mu.Unlock()
}

func decodeEvent(roomID string, envelope types.Envelope) (types.Event, error) {
	event := types.Event{Type: envelope.Type, RoomID: roomID}

	switch envelope.Type {
	case types.EventMessageCreated:
		var msg models.Message
		if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
			return event, fmt.Errorf("bad created payload: %w", err)
		}
		msg.State = models.MessageConfirmed
		event.Message = &msg
	case types.EventMessageEdited:
		var edit types.EditPayload
		if err := json.Unmarshal(envelope.Payload, &edit); err != nil {
			return event, fmt.Errorf("bad edited payload: %w", err)
		}
		event.Edit = &edit
	case types.EventMessageDeleted:
		var del types.DeletePayload
		if err := json.Unmarshal(envelope.Payload, &del); err != nil {
			return event, fmt.Errorf("bad deleted payload: %w", err)
		}
		event.Delete = &del
	case types.EventTyping:
		var typing models.TypingSignal
		if err := json.Unmarshal(envelope.Payload, &typing); err != nil {
			return event, fmt.Errorf("bad typing payload: %w", err)
		}
		typing.RoomID = roomID
		typing.ReceivedAt = time.Now()
		event.Typing = &typing
	case types.EventMemberJoined, types.EventMemberLeft:
		var member types.MemberPayload
		if err := json.Unmarshal(envelope.Payload, &member); err != nil {
			return event, fmt.Errorf("bad member payload: %w", err)
		}
		event.Member = &member
	default:
		return event, fmt.Errorf("unknown event type %q", envelope.Type)
	}

	return event, nil
}
