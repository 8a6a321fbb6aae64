package access

import (
	"context"
	"sync"
)

type fakeSessions struct {
	mu           sync.Mutex
	session      *Session
	err          error
	subErr       error
	handlers     map[int]SessionHandler
	next         int
	getCalls     int
	unsubscribed int
}

var _ SessionSource = (*fakeSessions)(nil)

func newFakeSessions(sess *Session) *fakeSessions {
	return &fakeSessions{session: sess, handlers: make(map[int]SessionHandler)}
}

func (f *fakeSessions) GetCurrentSession(context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, nil
	}
	sess := *f.session
	return &sess, nil
}

func (f *fakeSessions) OnSessionChange(handler SessionHandler) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	id := f.next
	f.next++
	f.handlers[id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
		f.unsubscribed++
	}, nil
}

// emit delivers event to the registered handlers synchronously.
func (f *fakeSessions) emit(event SessionEvent, sess *Session) {
	f.mu.Lock()
	handlers := make([]SessionHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(event, sess)
	}
}

func (f *fakeSessions) handlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type fakeUsers struct {
	users map[string]User
	err   error
}

var _ UserLookup = (*fakeUsers)(nil)

func (f *fakeUsers) LookupUser(_ context.Context, id string) (User, error) {
	if f.err != nil {
		return User{}, f.err
	}
	usr, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return usr, nil
}

// gatedFetcher blocks every fetch until its release channel receives a result.
type gatedFetcher struct {
	started chan string
	results chan fetchResult
}

type fetchResult struct {
	perms []Permission
	err   error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan string, 10), results: make(chan fetchResult)}
}

func (f *gatedFetcher) FetchPermissions(ctx context.Context, userID string) ([]Permission, error) {
	f.started <- userID
	select {
	case res := <-f.results:
		return res.perms, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
