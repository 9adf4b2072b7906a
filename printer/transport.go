package printer

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Link is the byte pipe to the printer. A Read that times out returns 0
// bytes and a nil error, the way serial ports behave.
type Link interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// bufferResetter is implemented by links that can drop stale bytes.
type bufferResetter interface {
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// -------------------- Simulator --------------------

// Simulator is a Link that answers like an EZ30 without printing anything.
// Every command is acknowledged and completed, discovery is answered.
// All bytes sent are kept; if capture is set they are written there on Close.
type Simulator struct {
	mu       sync.Mutex
	capture  io.Writer
	sent     bytes.Buffer
	pending  []byte
	replies  []byte
	commands []Command
	closed   bool
}

func NewSimulator(capture io.Writer) *Simulator {
	return &Simulator{capture: capture}
}

func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	s.sent.Write(p)
	for _, b := range p {
		s.handle(b)
	}
	return len(p), nil
}

func (s *Simulator) handle(b byte) {
	if len(s.pending) == 0 {
		if b == OpDiscovery {
			s.commands = append(s.commands, Command{b})
			s.replies = append(s.replies, RespDiscovery)
			return
		}
		s.replies = append(s.replies, RespGotInstruction)
	}
	s.pending = append(s.pending, b)

	if n, ok := commandLen(s.pending[0], s.pending[1:]); ok && len(s.pending) == n {
		s.commands = append(s.commands, append(Command(nil), s.pending...))
		s.replies = append(s.replies, RespStatusDone)
		s.pending = s.pending[:0]
	}
}

func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.EOF
	}
	n := copy(p, s.replies)
	s.replies = s.replies[n:]
	return n, nil
}

// SetReadTimeout is a no-op: replies are queued before they are read.
func (s *Simulator) SetReadTimeout(time.Duration) error { return nil }

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.capture != nil && s.sent.Len() > 0 {
		_, err := s.capture.Write(s.sent.Bytes())
		return err
	}
	return nil
}

// Commands returns every complete command received so far.
func (s *Simulator) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.commands...)
}

// Sent returns a copy of all bytes written.
func (s *Simulator) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.sent.Bytes()...)
}
