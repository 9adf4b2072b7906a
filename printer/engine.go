package printer

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// linkState is where the engine is inside SendCommand.
type linkState int

const (
	stateIdle      linkState = iota
	stateSending             // writing payload bytes, polling for unsolicited answers
	statePaused              // printer asked to pause, waiting for it to resume
	stateAwaitDone           // all bytes out, waiting for the completion byte
)

func (s linkState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSending:
		return "sending"
	case statePaused:
		return "paused"
	case stateAwaitDone:
		return "await-done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stats counts what happened on the link since the engine was created.
type Stats struct {
	Commands int
	Bytes    int
	Pauses   int
	Unknown  int
}

// Engine runs the EZ30 acknowledgement and flow control protocol on a Link.
// It is not safe for concurrent use; one command is in flight at a time.
type Engine struct {
	link Link
	cfg  Config
	log  *zap.Logger

	state     linkState
	lastWrite time.Time
	timeout   time.Duration // last value passed to SetReadTimeout
	stats     Stats

	now   func() time.Time
	sleep func(time.Duration)

	// onState, when set, is called on every state change (tests).
	onState func(linkState)
}

func NewEngine(link Link, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		link:    link,
		cfg:     cfg,
		log:     logger,
		timeout: -1,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) setState(s linkState) {
	if e.state == s {
		return
	}
	e.state = s
	if e.onState != nil {
		e.onState(s)
	}
}

// SendCommand writes cmd byte by byte and runs the handshake:
//
//   - the first byte must be answered with RespGotInstruction, or with
//     RespStatusDone when the command is already complete;
//   - after every byte a short poll picks up RespPauseData (wait for
//     RespGotInstruction, fail on RespDroppedData) or an early RespStatusDone;
//   - at the end RespStatusDone is awaited unless it was already seen.
//
// Unknown bytes are logged and ignored.
func (e *Engine) SendCommand(cmd Command) error {
	if len(cmd) == 0 {
		return nil
	}
	defer e.setState(stateIdle)

	op := cmd.String()
	e.stats.Commands++

	e.setState(stateSending)
	if err := e.writeByte(cmd[0]); err != nil {
		return ioErr(op, err)
	}

	b, ok, err := e.readByte(e.cfg.CommandTimeout)
	if err != nil {
		return ioErr(op, err)
	}
	if !ok {
		return protoErr(op, ErrProtocolTimeout)
	}

	needDone := true
	switch b {
	case RespGotInstruction:
	case RespStatusDone:
		needDone = false
	default:
		return protoErrGot(op, ErrProtocolAck, b)
	}

	for i := range cmd {
		if i > 0 {
			if err := e.writeByte(cmd[i]); err != nil {
				return ioErr(op, err)
			}
		}

		b, ok, err := e.readByte(e.cfg.CharDelay)
		if err != nil {
			return ioErr(op, err)
		}
		if !ok {
			continue
		}

		switch b {
		case RespPauseData:
			if err := e.pause(op); err != nil {
				return err
			}
		case RespStatusDone:
			needDone = false
		default:
			e.stats.Unknown++
			e.log.Warn("unexpected byte during transmission",
				zap.String("cmd", op),
				zap.Int("index", i),
				zap.String("byte", respName(b)))
		}
	}

	if needDone {
		return e.awaitDone(op)
	}
	return nil
}

// pause blocks until the printer resumes, reports dropped data, or the
// command timeout passes.
func (e *Engine) pause(op string) error {
	e.stats.Pauses++
	e.setState(statePaused)
	e.log.Debug("printer paused transmission", zap.String("cmd", op))

	err := e.waitFor(op, func(b byte) (bool, error) {
		switch b {
		case RespGotInstruction:
			return true, nil
		case RespDroppedData:
			return false, protoErrGot(op, ErrDataDropped, b)
		}
		e.stats.Unknown++
		e.log.Warn("unexpected byte while paused", zap.String("cmd", op), zap.String("byte", respName(b)))
		return false, nil
	})
	if err != nil {
		return err
	}

	e.setState(stateSending)
	return nil
}

func (e *Engine) awaitDone(op string) error {
	e.setState(stateAwaitDone)
	return e.waitFor(op, func(b byte) (bool, error) {
		if b == RespStatusDone {
			return true, nil
		}
		e.stats.Unknown++
		e.log.Debug("ignored byte while waiting for completion", zap.String("cmd", op), zap.String("byte", respName(b)))
		return false, nil
	})
}

// waitFor reads bytes until handle reports done or fails, or until
// CommandTimeout has passed since the call.
func (e *Engine) waitFor(op string, handle func(b byte) (bool, error)) error {
	deadline := e.now().Add(e.cfg.CommandTimeout)
	for {
		remaining := deadline.Sub(e.now())
		if remaining <= 0 {
			return protoErr(op, ErrProtocolTimeout)
		}

		b, ok, err := e.readByte(remaining)
		if err != nil {
			return ioErr(op, err)
		}
		if !ok {
			continue
		}

		done, err := handle(b)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Discover checks that an EZ30 is on the link: Start, then the discovery
// probe outside the handshake, which must be answered with RespDiscovery.
// The printer is reset afterwards.
func (e *Engine) Discover() error {
	if err := e.SendCommand(CmdStart()); err != nil {
		return &ProtocolError{Op: "discover", Kind: ErrDiscovery, Err: err}
	}

	if err := e.writeByte(OpDiscovery); err != nil {
		return ioErr("discover", err)
	}
	b, ok, err := e.readByte(e.cfg.CommandTimeout)
	if err != nil {
		return ioErr("discover", err)
	}
	if !ok {
		return protoErr("discover", ErrDiscovery)
	}
	if b != RespDiscovery {
		return protoErrGot("discover", ErrDiscovery, b)
	}

	e.log.Debug("printer discovered")
	return e.SendCommand(CmdReset())
}

// writeByte writes one byte, keeping at least CharDelay since the previous one.
func (e *Engine) writeByte(b byte) error {
	if !e.lastWrite.IsZero() {
		if wait := e.cfg.CharDelay - e.now().Sub(e.lastWrite); wait > 0 {
			e.sleep(wait)
		}
	}
	_, err := e.link.Write([]byte{b})
	e.lastWrite = e.now()
	if err != nil {
		return err
	}
	e.stats.Bytes++
	return nil
}

// readByte reads at most one byte within timeout. ok is false on timeout.
func (e *Engine) readByte(timeout time.Duration) (b byte, ok bool, err error) {
	if timeout != e.timeout {
		if err := e.link.SetReadTimeout(timeout); err != nil {
			return 0, false, err
		}
		e.timeout = timeout
	}

	var buf [1]byte
	n, err := e.link.Read(buf[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}
