package collab

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SessionID is the opaque identity assigned to a connection at connect time.
type SessionID string

func (id SessionID) String() string { return string(id) }

// Inbound message rate limit per session. Cursor traffic dominates; limits
// are generous for interactive use but cap a runaway client.
const (
	inboundRateLimit = 120
	inboundRateBurst = 240
)

// session is one live connection. Owned by the hub goroutine; the writer is
// the only part other goroutines touch, and it is internally synchronized.
type session struct {
	id          SessionID
	writer      *clientWriter
	currentRoom string
	limiter     *rate.Limiter
}

// registry tracks live sessions by identity. Not safe for concurrent use;
// the hub goroutine owns it.
type registry struct {
	sessions map[SessionID]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[SessionID]*session)}
}

// register allocates a fresh unique identity and records the session.
func (r *registry) register(writer *clientWriter) *session {
	id := newSessionID()
	for {
		if _, taken := r.sessions[id]; !taken {
			break
		}
		id = newSessionID()
	}
	s := &session{
		id:      id,
		writer:  writer,
		limiter: rate.NewLimiter(inboundRateLimit, inboundRateBurst),
	}
	r.sessions[id] = s
	return s
}

// unregister removes the session. Unknown ids are a no-op.
func (r *registry) unregister(id SessionID) {
	delete(r.sessions, id)
}

func (r *registry) get(id SessionID) (*session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) count() int {
	return len(r.sessions)
}

// newSessionID derives a short display identity from a fresh uuid, the shape
// clients render next to remote cursors.
func newSessionID() SessionID {
	return SessionID(fmt.Sprintf("user-%s", uuid.New().String()[:8]))
}
