package sessionsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
)

var nowFunc = time.Now // mockable

var newIDFunc = func() string { return uuid.New().String() } // mockable

// ErrNoClient is returned when a Source is used without a client id.
var ErrNoClient = errors.New("session source is not bound to a client")

type eventPayload struct {
	Event   access.SessionEvent `json:"event"`
	Session *access.Session     `json:"session,omitempty"`
}

func sessionKey(clientID string) string { return "client:" + clientID + ":session" }

func eventsChannel(clientID string) string { return "session:client:" + clientID + ":events" }

// NewClientID returns a new random client id.
func NewClientID() string { return newIDFunc() }

// Manager stores client sessions in Redis.
type Manager struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger core.Logger
}

func NewManager(rdb *redis.Client, conf *core.Config, logger core.Logger) *Manager {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Manager{rdb: rdb, ttl: conf.Redis.SessionTTL, logger: logger}
}

// Lookup returns the session of clientID, or nil if it is signed out (or expired).
func (m *Manager) Lookup(ctx context.Context, clientID string) (*access.Session, error) {
	if clientID == "" {
		return nil, ErrNoClient
	}
	data, err := m.rdb.Get(ctx, sessionKey(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting session")
	}
	var sess access.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return &sess, nil
}

// ForClient returns the Source bound to clientID.
func (m *Manager) ForClient(clientID string) *Source {
	return &Source{manager: m, clientID: clientID}
}

func (m *Manager) publish(ctx context.Context, clientID string, event access.SessionEvent, sess *access.Session) error {
	data, err := json.Marshal(eventPayload{Event: event, Session: sess})
	if err != nil {
		return errors.Wrap(err, "encoding session event")
	}
	if err := m.rdb.Publish(ctx, eventsChannel(clientID), data).Err(); err != nil {
		return errors.Wrap(err, "publishing session event")
	}
	return nil
}

// Source is the SessionSource of one client.
type Source struct {
	manager  *Manager
	clientID string
}

var _ access.SessionSource = (*Source)(nil)

func (s *Source) ClientID() string { return s.clientID }

// Login starts a session for usr and notifies the client's subscribers.
// It replaces any session the client already had.
func (s *Source) Login(ctx context.Context, usr access.User) (access.Session, error) {
	if s.clientID == "" {
		return access.Session{}, ErrNoClient
	}
	now := nowFunc().UTC()
	sess := access.Session{
		ID:        newIDFunc(),
		ClientID:  s.clientID,
		UserID:    usr.ID,
		Email:     usr.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.manager.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return access.Session{}, errors.Wrap(err, "encoding session")
	}
	if err := s.manager.rdb.Set(ctx, sessionKey(s.clientID), data, s.manager.ttl).Err(); err != nil {
		return access.Session{}, errors.Wrap(err, "storing session")
	}
	if err := s.manager.publish(ctx, s.clientID, access.SessionSignedIn, &sess); err != nil {
		return access.Session{}, err
	}
	return sess, nil
}

// Logout ends the client's session and notifies its subscribers.
func (s *Source) Logout(ctx context.Context) error {
	if s.clientID == "" {
		return ErrNoClient
	}
	if err := s.manager.rdb.Del(ctx, sessionKey(s.clientID)).Err(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return s.manager.publish(ctx, s.clientID, access.SessionSignedOut, nil)
}

func (s *Source) GetCurrentSession(ctx context.Context) (*access.Session, error) {
	return s.manager.Lookup(ctx, s.clientID)
}

// OnSessionChange calls handler, from a dedicated goroutine, for every event published
// for the client. The subscription is confirmed before returning.
// No handler call starts once unsubscribe returned. unsubscribe does not wait for a
// running handler, so handlers may call it.
func (s *Source) OnSessionChange(handler access.SessionHandler) (func(), error) {
	if s.clientID == "" {
		return nil, ErrNoClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := s.manager.rdb.Subscribe(ctx, eventsChannel(s.clientID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribing to session events")
	}

	var stopped atomic.Bool
	go func() {
		for msg := range pubsub.Channel() {
			if stopped.Load() {
				return
			}
			var p eventPayload
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				s.manager.logger.Warn(fmt.Sprintf("ignoring malformed session event: %v", err), err)
				continue
			}
			if stopped.Load() {
				return
			}
			handler(p.Event, p.Session)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			cancel()
			_ = pubsub.Close()
		})
	}, nil
}
