package printer

import (
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
	"github.com/AlexStarov/ez30-GoLang-lib/util"
)

// State of the printer session.
type State int

const (
	StateUninitialized State = iota
	StateDiscovering
	StateInitializing
	StateReady
	StatePrinting
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDiscovering:
		return "discovering"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StatePrinting:
		return "printing"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// HeadPosition is where the print head is. X counts device lines fed since
// the start of the job and only grows. Y is the column across the label.
type HeadPosition struct {
	X, Y int
}

// Opener opens the link to the printer.
type Opener func() (Link, error)

type Option func(*Printer)

// WithLogger sets the logger; the default is the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Printer) {
		if l != nil {
			p.log = l
		}
	}
}

// Printer drives one EZ30 over one link. Calls must not overlap: a server
// printing several jobs has to feed them to the Printer one at a time.
type Printer struct {
	cfg  Config
	open Opener
	log  *zap.Logger

	link  Link
	eng   *Engine
	state State
	head  HeadPosition
	mode  imgInternal.Mode

	sleep func(time.Duration)
}

// NewPrinter creates a printer that opens its link with open on Initialize.
func NewPrinter(open Opener, cfg Config, opts ...Option) (*Printer, error) {
	if open == nil {
		return nil, errors.New("printer: nil opener")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Printer{
		cfg:   cfg,
		open:  open,
		log:   logInternal.L(),
		sleep: time.Sleep,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Printer) State() State       { return p.state }
func (p *Printer) Head() HeadPosition { return p.head }

// Stats returns the link counters of the current session.
func (p *Printer) Stats() Stats {
	if p.eng == nil {
		return Stats{}
	}
	return p.eng.Stats()
}

// Initialize opens the link, checks that an EZ30 answers, runs the init
// sequence in high resolution and prints one blank line to flush whatever
// the printer still had buffered. It can be called again to recover from
// StateFaulted.
func (p *Printer) Initialize() error {
	if p.link != nil {
		p.closeLink()
	}

	p.state = StateDiscovering
	link, err := p.open()
	if err != nil {
		p.state = StateFaulted
		if !errors.Is(err, ErrPortOpen) {
			err = fmt.Errorf("%w: %v", ErrPortOpen, err)
		}
		return err
	}
	if r, ok := link.(bufferResetter); ok {
		_ = r.ResetInputBuffer()
		_ = r.ResetOutputBuffer()
	}
	p.link = link
	p.eng = NewEngine(link, p.cfg, p.log)

	if err := p.eng.Discover(); err != nil {
		return p.fault("discover", err)
	}

	p.state = StateInitializing
	for _, cmd := range []Command{CmdInit(), CmdHome(), CmdResolution(imgInternal.HighRes)} {
		if err := p.eng.SendCommand(cmd); err != nil {
			return p.fault("init", err)
		}
	}
	p.mode = imgInternal.HighRes
	p.head = HeadPosition{}
	p.sleep(p.cfg.InitSettle)

	if err := p.sendRun(make([]byte, imgInternal.HighResWidth)); err != nil {
		return p.fault("flush", err)
	}
	if err := p.home(); err != nil {
		return p.fault("flush", err)
	}
	p.head = HeadPosition{}

	p.state = StateReady
	p.log.Info("printer ready", zap.Int("commands", p.eng.Stats().Commands))
	return nil
}

// Print converts img with the given threshold and resolution and prints it.
func (p *Printer) Print(img image.Image, threshold int, mode imgInternal.Mode) error {
	if p.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotReady, p.state)
	}
	return imgInternal.NewConverter(mode, threshold).Print(img, p)
}

// PrintSource resolves src to an image and prints it.
func (p *Printer) PrintSource(src imgInternal.Source, threshold int, mode imgInternal.Mode) error {
	img, err := src.Image()
	if err != nil {
		return err
	}
	return p.Print(img, threshold, mode)
}

// PrintImage prints an image file.
func (p *Printer) PrintImage(imgPath string, threshold int, mode imgInternal.Mode) error {
	return p.PrintSource(imgInternal.FileSource(imgPath), threshold, mode)
}

// PrintJob sends a segmented job. Only ink runs are transmitted; the head is
// moved over blank stretches.
func (p *Printer) PrintJob(job *imgInternal.Job) error {
	if p.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotReady, p.state)
	}
	width := job.Mode.MaxWidth()
	for i, line := range job.Lines {
		if n := lineWidth(line); n > width {
			return fmt.Errorf("%w: line %d is %d bytes, label is %d", ErrJobTooWide, i, n, width)
		}
	}

	started := time.Now()
	p.state = StatePrinting
	p.log.Info("print job started",
		zap.String("job", job.ID),
		zap.Stringer("mode", job.Mode),
		zap.Int("lines", len(job.Lines)),
		zap.Int("stripped", job.Packed-len(job.Lines)))

	if err := p.send(CmdResolution(job.Mode)); err != nil {
		return p.fault("resolution", err)
	}
	p.mode = job.Mode
	if err := p.home(); err != nil {
		return p.fault("home", err)
	}
	p.head.X = 0

	// The printer only trusts relative moves after a full sweep.
	if err := p.moveY(width); err != nil {
		return p.fault("prime", err)
	}
	if err := p.moveY(0); err != nil {
		return p.fault("prime", err)
	}

	for _, line := range job.Lines {
		cursor := 0
		for _, seg := range line {
			target := cursor + seg.Offset
			if err := p.moveY(target); err != nil {
				return p.fault("move", err)
			}
			if err := p.sendRun(seg.Data); err != nil {
				return p.fault("image", err)
			}
			cursor = target + seg.Len()
		}
		if err := p.feedLine(); err != nil {
			return p.fault("feed", err)
		}
		p.sleep(p.cfg.LineSettle)
	}

	if err := p.home(); err != nil {
		return p.fault("end", err)
	}
	if err := p.send(CmdFeedOut()); err != nil {
		return p.fault("end", err)
	}

	p.state = StateReady
	st := p.eng.Stats()
	p.log.Info("print job finished",
		zap.String("job", job.ID),
		zap.Duration("took", time.Since(started)),
		zap.Int("bytes", st.Bytes),
		zap.Int("pauses", st.Pauses))
	return nil
}

// FeedTo feeds blank lines until the head is at line x. Moving back is not
// possible; it returns ErrHeadBackward and sends nothing.
func (p *Printer) FeedTo(x int) error {
	if p.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotReady, p.state)
	}
	if x < p.head.X {
		return fmt.Errorf("%w: at line %d, asked for %d", ErrHeadBackward, p.head.X, x)
	}
	for p.head.X < x {
		if err := p.feedLine(); err != nil {
			return p.fault("feed", err)
		}
	}
	return nil
}

// Close closes the link. The printer has to be initialized again before use.
func (p *Printer) Close() error {
	err := p.closeLink()
	p.state = StateUninitialized
	return err
}

// feedLine moves to the next device line. In high resolution even lines are
// the first field of a pair and only move half a dot.
func (p *Printer) feedLine() error {
	var cmds []Command
	switch {
	case p.mode == imgInternal.HighRes && p.head.X%2 == 1:
		cmds = []Command{CmdHiResFeed()}
	case p.mode == imgInternal.HighRes:
		cmds = []Command{CmdSecondField()}
	default:
		cmds = []Command{CmdHiResFeed(), CmdSecondField()}
	}
	for _, c := range cmds {
		if err := p.send(c); err != nil {
			return err
		}
	}
	p.head.X++
	return nil
}

func (p *Printer) moveY(target int) error {
	for _, c := range CmdMove(p.head.Y, target) {
		if err := p.send(c); err != nil {
			return err
		}
	}
	p.head.Y = target
	return nil
}

// sendRun prints data at the head, in bursts of at most cfg.Burst bytes.
func (p *Printer) sendRun(data []byte) error {
	for _, part := range util.Chunk(data, p.cfg.burst()) {
		cmd, err := CmdImageLine(part)
		if err != nil {
			return err
		}
		if err := p.send(cmd); err != nil {
			return err
		}
		p.head.Y += len(part)
	}
	return nil
}

func (p *Printer) home() error {
	if err := p.send(CmdHome()); err != nil {
		return err
	}
	p.head.Y = 0
	return nil
}

func (p *Printer) send(cmd Command) error {
	return p.eng.SendCommand(cmd)
}

func (p *Printer) fault(step string, err error) error {
	p.state = StateFaulted
	p.log.Error("printer fault", zap.String("step", step), zap.Error(err))
	p.closeLink()
	return err
}

func (p *Printer) closeLink() error {
	if p.link == nil {
		return nil
	}
	err := p.link.Close()
	p.link = nil
	p.eng = nil
	return err
}

func lineWidth(l imgInternal.Line) int {
	n := 0
	for _, s := range l {
		n += s.Offset + s.Len()
	}
	return n
}
