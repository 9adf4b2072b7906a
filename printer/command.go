package printer

import (
	"fmt"

	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	"github.com/AlexStarov/ez30-GoLang-lib/util"
)

// EZ30 opcodes.
const (
	OpStart       byte = 0x01
	OpImageLine   byte = 0x03 // followed by length and that many data bytes
	OpHiResInit   byte = 0x05
	OpLoResInit   byte = 0x06
	OpMoveRight   byte = 0x07 // followed by a one byte distance
	OpMoveLeft    byte = 0x08 // followed by a one byte distance
	OpSecondField byte = 0x09 // end of the first field, half a dot down
	OpLineFeed    byte = 0x0A // one line, 8 dots
	OpHiResFeed   byte = 0x0B // one line down, leaves the interlaced line
	OpFeedOut     byte = 0x0C // feed the label out
	OpHome        byte = 0x0D
	OpInit        byte = 0x0E // followed by 0x80
	OpReset       byte = 0x0F
	OpDiscovery   byte = 0x88
)

// Bytes the printer answers with.
const (
	RespGotInstruction byte = 0x00
	RespStatusDone     byte = 0x20
	RespPauseData      byte = 0x40
	RespStatusBusy     byte = 0x80
	RespDroppedData    byte = 0xC0
	RespDiscovery      byte = 0x77
)

const (
	// BufferSize is the longest burst the printer takes without pausing,
	// found by sending until it answered with RespDroppedData.
	BufferSize = 0x5F

	// MaxPayload is the largest length an image line or move can carry.
	MaxPayload = 0xFF
)

// Command is one complete instruction: opcode and payload.
type Command []byte

func (c Command) Op() byte {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

func (c Command) String() string {
	if len(c) == 0 {
		return "<empty>"
	}
	name := opName(c[0])
	if len(c) > 2 {
		return fmt.Sprintf("%s(%d bytes)", name, len(c)-1)
	}
	if len(c) == 2 {
		return fmt.Sprintf("%s(0x%02x)", name, c[1])
	}
	return name
}

func CmdStart() Command       { return Command{OpStart} }
func CmdHome() Command        { return Command{OpHome} }
func CmdReset() Command       { return Command{OpReset} }
func CmdInit() Command        { return Command{OpInit, 0x80} }
func CmdLineFeed() Command    { return Command{OpLineFeed} }
func CmdHiResFeed() Command   { return Command{OpHiResFeed} }
func CmdSecondField() Command { return Command{OpSecondField} }
func CmdFeedOut() Command     { return Command{OpFeedOut} }

// CmdResolution selects high or low resolution.
func CmdResolution(mode imgInternal.Mode) Command {
	if mode == imgInternal.HighRes {
		return Command{OpHiResInit}
	}
	return Command{OpLoResInit}
}

// CmdImageLine prints data at the head position; the head moves right by len(data).
func CmdImageLine(data []byte) (Command, error) {
	if len(data) == 0 || len(data) > MaxPayload {
		return nil, fmt.Errorf("%w: image line of %d bytes", ErrPayloadSize, len(data))
	}
	cmd := make(Command, 0, len(data)+2)
	cmd = append(cmd, OpImageLine, byte(len(data)))
	return append(cmd, data...), nil
}

// CmdMove returns the commands moving the head from column from to column
// to. Nothing is returned when they are equal; distances over MaxPayload are
// split.
func CmdMove(from, to int) []Command {
	op, dist := OpMoveRight, to-from
	if dist < 0 {
		op, dist = OpMoveLeft, -dist
	}

	var cmds []Command
	for _, step := range util.SplitMagnitude(dist, MaxPayload) {
		cmds = append(cmds, Command{op, byte(step)})
	}
	return cmds
}

func opName(op byte) string {
	switch op {
	case OpStart:
		return "start"
	case OpImageLine:
		return "image-line"
	case OpHiResInit:
		return "hi-res-init"
	case OpLoResInit:
		return "lo-res-init"
	case OpMoveRight:
		return "move-right"
	case OpMoveLeft:
		return "move-left"
	case OpSecondField:
		return "second-field"
	case OpLineFeed:
		return "line-feed"
	case OpHiResFeed:
		return "hi-res-feed"
	case OpFeedOut:
		return "feed-out"
	case OpHome:
		return "home"
	case OpInit:
		return "init"
	case OpReset:
		return "reset"
	case OpDiscovery:
		return "discovery"
	}
	return fmt.Sprintf("op-0x%02x", op)
}

func respName(b byte) string {
	switch b {
	case RespGotInstruction:
		return "got-instruction"
	case RespStatusDone:
		return "status-done"
	case RespPauseData:
		return "pause-data"
	case RespStatusBusy:
		return "status-busy"
	case RespDroppedData:
		return "dropped-data"
	case RespDiscovery:
		return "discovery"
	}
	return fmt.Sprintf("unknown-0x%02x", b)
}

// commandLen returns the full length of the command starting with op, given
// the byte after it when the length depends on it. ok is false when more
// bytes are needed to tell.
func commandLen(op byte, next []byte) (n int, ok bool) {
	switch op {
	case OpMoveRight, OpMoveLeft, OpInit:
		return 2, true
	case OpImageLine:
		if len(next) == 0 {
			return 0, false
		}
		return 2 + int(next[0]), true
	}
	return 1, true
}
