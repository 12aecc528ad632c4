package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/looplab/fsm"
)

// ReconnectDelay is the fixed pause between a disconnect and the next dial.
// There is no backoff growth and no retry cap.
const ReconnectDelay = 3 * time.Second

const messageTypeTelemetryUpdate = "telemetry_update"

// Session state machine events.
const (
	eventDial        = "dial"
	eventEstablished = "established"
	eventDrop        = "drop"
)

// Session owns one logical streaming connection to the telemetry endpoint. It
// decodes telemetry_update batches into the State and recovers from any
// transport failure on its own; the operator only ever sees the connection
// state change. The session is opened when the dashboard mounts and must be
// closed on teardown through every exit path.
type Session struct {
	url     string
	state   *State
	log     *slog.Logger
	dialer  *websocket.Dialer
	machine *fsm.FSM
	delay   time.Duration
	onState func(ConnState)

	mu     sync.Mutex
	conn   *websocket.Conn
	retry  *time.Timer
	closed bool
}

// SessionOption customises session construction.
type SessionOption func(*Session)

// WithReconnectDelay overrides the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithStateListener registers a callback invoked on every connection state
// transition. Intended for rendering a status indicator.
func WithStateListener(fn func(ConnState)) SessionOption {
	return func(s *Session) {
		s.onState = fn
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) SessionOption {
	return func(s *Session) {
		if d != nil {
			s.dialer = d
		}
	}
}

// NewSession constructs a session bound to the given live state. The session
// does nothing until Connect is called.
func NewSession(url string, state *State, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		url:    url,
		state:  state,
		log:    logger.With("component", "telemetry_stream"),
		dialer: websocket.DefaultDialer,
		delay:  ReconnectDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = fsm.NewFSM(string(StateIdle),
		fsm.Events{
			{Name: eventDial, Src: []string{string(StateIdle), string(StateDisconnected)}, Dst: string(StateConnecting)},
			{Name: eventEstablished, Src: []string{string(StateConnecting)}, Dst: string(StateConnected)},
			{Name: eventDrop, Src: []string{string(StateConnecting), string(StateConnected)}, Dst: string(StateDisconnected)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				next := ConnState(e.Dst)
				s.state.setConnectionState(next)
				if s.onState != nil {
					s.onState(next)
				}
			},
		},
	)
	return s
}

// Connect opens the streaming session. It returns immediately; the dial runs
// in the background and failures feed the reconnect loop.
func (s *Session) Connect() {
	if s.isClosed() {
		return
	}
	if !s.transition(eventDial) {
		return
	}
	go s.dial()
}

// ConnectionState reports the current session state.
func (s *Session) ConnectionState() ConnState {
	return s.state.ConnectionState()
}

// Close tears the session down: the pending reconnect timer (if any) is
// cancelled, the socket is closed, and no further state transitions or batch
// applications happen. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) dial() {
	conn, resp, err := s.dialer.Dial(s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		s.log.Warn("telemetry dial failed", "url", s.url, "error", err)
		s.dropAndRetry()
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()
	s.transition(eventEstablished)
	go s.readLoop(conn)
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			s.log.Warn("telemetry stream closed", "error", err)
			s.dropAndRetry()
			return
		}
		s.handleMessage(payload)
	}
}

func (s *Session) handleMessage(payload []byte) {
	var msg struct {
		Type   string   `json:"type"`
		Data   []Sample `json:"data"`
		Alerts []Alert  `json:"alerts"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		// Malformed payloads are dropped without touching connection state.
		s.log.Warn("dropping malformed stream message", "error", err)
		return
	}
	if msg.Type != messageTypeTelemetryUpdate {
		return
	}
	if s.isClosed() {
		return
	}
	s.state.ApplyBatch(msg.Data, msg.Alerts)
}

// dropAndRetry records the disconnect and arms the reconnect timer. The state
// machine rejects a second drop while already disconnected, so overlapping
// close and error signals arm at most one timer.
func (s *Session) dropAndRetry() {
	if !s.transition(eventDrop) {
		return
	}
	s.scheduleRetry()
}

func (s *Session) scheduleRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.retry != nil {
		return
	}
	s.retry = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.retry = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if s.transition(eventDial) {
			s.dial()
		}
	})
}

func (s *Session) transition(event string) bool {
	if err := s.machine.Event(context.Background(), event); err != nil {
		return false
	}
	return true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
