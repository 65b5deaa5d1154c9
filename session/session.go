// Package session ties one emulated machine to one connected
// terminal.  Each session owns its machine, memory, disk, and
// open-file table outright and runs on its own goroutine; the only
// state shared between sessions is the registry, which is guarded by
// a mutex around insert and remove.
package session

import (
	"log/slog"
	"sync"

	"github.com/retroshell/cpm80/cpm"
	"github.com/retroshell/cpm80/static"
	"github.com/retroshell/cpm80/terminal"
)

// Conn is the transport boundary: a bidirectional channel whose only
// payload is text.  The client sends raw keystrokes; the server
// sends everything the guest writes.
type Conn interface {

	// ReadText returns the next frame of input from the client,
	// blocking until one arrives.
	ReadText() (string, error)

	// WriteText sends a frame of output to the client.
	WriteText(text string) error

	// Close shuts the transport down.
	Close() error
}

// Session is one connected user's machine.
type Session struct {

	// ID identifies the connection this session belongs to.
	ID string

	// conn is the transport.
	conn Conn

	// term is the buffered terminal bridging transport and machine.
	term *terminal.Buffered

	// machine is the emulated computer.
	machine *cpm.CPM

	// logger holds a logger which we use for debugging and diagnostics.
	logger *slog.Logger
}

// New creates a session for the given connection, with the default
// disk contents installed.
func New(id string, conn Conn, logger *slog.Logger) *Session {

	term := terminal.NewBuffered(func(s string) {
		// Output failures mean the transport is going away; the
		// reader side will notice and stop the session.
		_ = conn.WriteText(s)
	})

	machine := cpm.New(term, logger.With(slog.String("session", id)))
	static.Populate(machine.Drive)

	return &Session{
		ID:      id,
		conn:    conn,
		term:    term,
		machine: machine,
		logger:  logger,
	}
}

// Machine returns the session's machine, so callers can register
// transient programs before Run.
func (s *Session) Machine() *cpm.CPM {
	return s.machine
}

// Run drives the session until the user exits or the transport
// closes.  It is expected to be the body of the session's goroutine.
func (s *Session) Run() {

	// Pump input from the transport into the terminal queue.
	go func() {
		for {
			text, err := s.conn.ReadText()
			if err != nil {
				s.logger.Debug("transport closed",
					slog.String("session", s.ID),
					slog.String("error", err.Error()))
				s.Stop()
				return
			}
			s.term.Feed(text)
		}
	}()

	err := s.machine.Start()
	if err != nil {
		// A single line, then the session ends.
		_ = s.conn.WriteText("System error: " + err.Error() + "\r\n")

		s.logger.Warn("session failed",
			slog.String("session", s.ID),
			slog.String("error", err.Error()))
	}

	_ = s.conn.Close()
}

// Stop shuts the session down: the machine stops stepping and any
// blocked console read is released.
func (s *Session) Stop() {
	s.machine.Stop()
	s.term.Close()
}

// Registry maps connection IDs to their sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Add stores a session under its connection ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
}

// Remove forgets the session with the given ID, returning it so the
// caller can stop it.
func (r *Registry) Remove(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[id]
	delete(r.sessions, id)
	return s
}

// Get returns the session with the given ID, if present.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
