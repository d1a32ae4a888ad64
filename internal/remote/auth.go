package remote

import "sync"

// StaticAuth is an Auth whose identity is set programmatically: from
// configuration at startup, or by tests simulating sign-in transitions.
type StaticAuth struct {
	mu      sync.Mutex
	userID  string
	nextSub int
	subs    map[int]func(string)
}

func NewStaticAuth(userID string) *StaticAuth {
	return &StaticAuth{userID: userID}
}

func (a *StaticAuth) CurrentUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// SetUserID changes the identity and notifies listeners. Setting the same
// value again is a no-op.
func (a *StaticAuth) SetUserID(id string) {
	a.mu.Lock()
	if a.userID == id {
		a.mu.Unlock()
		return
	}
	a.userID = id
	fns := make([]func(string), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

func (a *StaticAuth) OnAuthStateChanged(fn func(string)) func() {
	a.mu.Lock()
	if a.subs == nil {
		a.subs = make(map[int]func(string))
	}
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}
