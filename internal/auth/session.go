package auth

import "sync"

// Session holds the identity of one client and notifies watchers when it changes.
type Session struct {
	authority *Authority

	mu       sync.Mutex
	identity Identity
	token    string
	nextID   int
	watchers map[int]func(Identity)
}

// NewSession creates a signed-out session.
func NewSession(authority *Authority) *Session {
	return &Session{authority: authority, watchers: make(map[int]func(Identity))}
}

// Identity returns the current identity.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Token returns the bearer token of a signed-in session, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SignIn verifies token and switches the session to its user.
func (s *Session) SignIn(token string) (Identity, error) {
	id, err := s.authority.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	s.set(id, token)
	return id, nil
}

// SignInAs switches the session to id without a token.
func (s *Session) SignInAs(id Identity) {
	s.set(id, "")
}

// SignOut returns the session to the anonymous identity.
func (s *Session) SignOut() {
	s.set(Anonymous(), "")
}

// Watch registers fn to be called with every identity change. The returned function
// unregisters it.
func (s *Session) Watch(fn func(Identity)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(id Identity, token string) {
	s.mu.Lock()
	changed := s.identity != id
	s.identity = id
	s.token = token
	fns := make([]func(Identity), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		fn(id)
	}
}
