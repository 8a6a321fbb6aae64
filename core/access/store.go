package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
)

// Store owns the authorization State of one client and keeps it in sync with the
// SessionSource. It is the only writer of its State; everything else reads snapshots.
// Store methods never return errors: failures are recorded in State.Error.
type Store struct {
	sessions SessionSource
	loader   Loader
	logger   core.Logger

	mu      sync.RWMutex
	state   State
	seq     uint64 // id of the latest state transition; older loads are discarded
	subs    map[int]func(State)
	nextSub int

	ctx         context.Context // lives until Close
	cancel      context.CancelFunc
	unsubscribe func()
	started     bool
	closed      bool
}

var _ Querier = (*Store)(nil)

// NewStore returns a Store in the initial (empty, loading) state. Call Initialize to start it.
func NewStore(sessions SessionSource, loader Loader, logger core.Logger) *Store {
	if logger == nil {
		logger = core.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		sessions: sessions,
		loader:   loader,
		logger:   logger,
		state:    State{Permissions: PermissionSet{}, IsLoading: true},
		subs:     make(map[int]func(State)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Initialize subscribes to session changes then loads the current session, its user and
// their permissions. Only the first call has any effect.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	unsubscribe, err := s.sessions.OnSessionChange(s.handleSessionChange)
	if err != nil {
		s.logger.Error(fmt.Sprintf("subscribing to session changes: %v", err), err)
	} else {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			unsubscribe()
		} else {
			s.unsubscribe = unsubscribe
			s.mu.Unlock()
		}
	}

	seq := s.begin(nil)
	sess, err := s.sessions.GetCurrentSession(ctx)
	if err != nil {
		err = errors.Wrap(err, "getting current session")
		s.logger.Error(err.Error(), err)
		s.commit(seq, func(st *State) {
			st.User = nil
			st.Permissions = PermissionSet{}
			st.IsLoading = false
			st.Error = err.Error()
		})
		return
	}
	if sess == nil {
		s.commit(seq, func(st *State) {
			st.IsLoading = false
			st.Error = ""
		})
		return
	}
	s.resolveSession(ctx, seq, *sess)
}

// LoadPermissions (re)loads the permissions of userID with the given role.
// On fetch failure the role's defaults are used and the failure is recorded in State.Error.
func (s *Store) LoadPermissions(ctx context.Context, userID string, role Role) {
	seq := s.begin(nil)
	s.loadPermissions(ctx, seq, userID, role)
}

// Refresh reloads the permissions of the current user. No-op when signed out.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.RLock()
	usr := s.state.User
	s.mu.RUnlock()
	if usr == nil {
		return
	}
	s.LoadPermissions(ctx, usr.ID, usr.Role)
}

// SetUser replaces the current user. A non-nil user gets a fresh permission load;
// nil clears the permissions.
func (s *Store) SetUser(ctx context.Context, usr *User) {
	if usr == nil {
		s.signOut()
		return
	}
	u := *usr
	seq := s.begin(func(st *State) {
		st.User = &u
		st.Permissions = PermissionSet{}
		st.IsLoading = true
	})
	s.loadPermissions(ctx, seq, u.ID, u.Role)
}

// Snapshot returns a copy of the current State.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe calls fn with a snapshot after every state change, until unsubscribe is called.
// fn may be called from any goroutine.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close releases the session subscription and drops all subscribers.
// Session events received afterwards are ignored.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.subs = make(map[int]func(State))
	s.mu.Unlock()

	s.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}

// Query API

func (s *Store) HasPermission(p Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasPermission(p)
}

func (s *Store) HasAnyPermission(perms ...Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasAnyPermission(perms...)
}

func (s *Store) HasAllPermissions(perms ...Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasAllPermissions(perms...)
}

func (s *Store) HasRole(r Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasRole(r)
}

// GetPermissions returns a copy of the held permissions.
func (s *Store) GetPermissions() PermissionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetPermissions()
}

// internals

func (s *Store) handleSessionChange(event SessionEvent, sess *Session) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return
	}

	switch event {
	case SessionSignedIn:
		if sess == nil {
			s.logger.Warn("sign-in event without a session; ignored")
			return
		}
		seq := s.begin(func(st *State) { st.IsLoading = true })
		s.resolveSession(s.ctx, seq, *sess)
	case SessionSignedOut:
		s.signOut()
	}
}

func (s *Store) resolveSession(ctx context.Context, seq uint64, sess Session) {
	usr, err := s.loader.ResolveUser(ctx, sess)
	if err != nil {
		s.logger.Error(fmt.Sprintf("resolving session user: %v", err), err)
		s.commit(seq, func(st *State) {
			st.User = nil
			st.Permissions = PermissionSet{}
			st.IsLoading = false
			st.Error = err.Error()
		})
		return
	}

	perms, err := s.loader.Permissions(ctx, usr.ID, usr.Role)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("falling back to %s permissions: %v", usr.Role, err), err)
	}
	s.commit(seq, func(st *State) {
		st.User = &usr
		st.Permissions = perms
		st.IsLoading = false
		st.Error = errString(err)
	})
}

func (s *Store) loadPermissions(ctx context.Context, seq uint64, userID string, role Role) {
	perms, err := s.loader.Permissions(ctx, userID, role)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("falling back to %s permissions: %v", role, err), err)
	}
	s.commit(seq, func(st *State) {
		st.Permissions = perms
		st.IsLoading = false
		st.Error = errString(err)
	})
}

// signOut atomically resets the state; in-flight loads are discarded.
func (s *Store) signOut() {
	s.begin(func(st *State) {
		*st = State{Permissions: PermissionSet{}}
	})
}

// begin starts a new transition, applying the optional immediate update, and returns its id.
func (s *Store) begin(update func(*State)) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if update == nil {
		s.mu.Unlock()
		return seq
	}
	update(&s.state)
	snap, subs := s.state.clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return seq
}

// commit applies update if no newer transition began since seq.
func (s *Store) commit(seq uint64, update func(*State)) {
	s.mu.Lock()
	if latest := s.seq; seq != latest {
		s.mu.Unlock()
		s.logger.Debug(fmt.Sprintf("discarding stale permission load %d (latest %d)", seq, latest))
		return
	}
	update(&s.state)
	snap, subs := s.state.clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
}

// subscribers must be called with mu held.
func (s *Store) subscribers() []func(State) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(State), snap State) {
	for _, fn := range subs {
		fn(snap.clone())
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
