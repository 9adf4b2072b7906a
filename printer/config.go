package printer

import (
	"fmt"
	"time"
)

// BaudRate is the only speed the EZ30 talks.
const BaudRate = 9600

// Config holds the link and timing parameters. It is copied into the
// Printer and Engine at construction and never changed afterwards.
type Config struct {
	// CharDelay is the minimum time between two bytes written, and how long
	// the engine waits for an unsolicited answer after each byte.
	CharDelay time.Duration

	// CommandTimeout bounds every wait for an acknowledgement, a resume
	// after a pause, and the discovery answer.
	CommandTimeout time.Duration

	// InitSettle is the pause after the init sequence.
	InitSettle time.Duration

	// LineSettle is the pause after each line feed while printing.
	LineSettle time.Duration

	// Burst splits image runs into commands of at most Burst bytes.
	// 0 sends each run as one command (up to MaxPayload).
	Burst int
}

func DefaultConfig() Config {
	return Config{
		CharDelay:      2500 * time.Microsecond,
		CommandTimeout: 10 * time.Second,
		InitSettle:     time.Second,
		LineSettle:     100 * time.Millisecond,
	}
}

func (c Config) validate() error {
	if c.CharDelay < 0 || c.InitSettle < 0 || c.LineSettle < 0 {
		return fmt.Errorf("printer: negative delay in config")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("printer: command timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.Burst < 0 || c.Burst > MaxPayload {
		return fmt.Errorf("printer: burst must be 0..%d, got %d", MaxPayload, c.Burst)
	}
	return nil
}

// burst returns the effective image chunk size.
func (c Config) burst() int {
	if c.Burst <= 0 {
		return MaxPayload
	}
	return c.Burst
}
