package printer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	imgInternal "github.com/AlexStarov/ez30-GoLang-lib/image"
)

func simOpener(sim *Simulator) Opener {
	return func() (Link, error) { return sim, nil }
}

func newTestPrinter(t *testing.T, open Opener, cfg Config) *Printer {
	p, err := NewPrinter(open, cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return p
}

func readyPrinter(t *testing.T, cfg Config) (*Printer, *Simulator) {
	sim := NewSimulator(nil)
	p := newTestPrinter(t, simOpener(sim), cfg)
	require.NoError(t, p.Initialize())
	return p, sim
}

func imageLine(t *testing.T, data ...byte) Command {
	cmd, err := CmdImageLine(data)
	require.NoError(t, err)
	return cmd
}

func initSequence(t *testing.T) []Command {
	return []Command{
		CmdStart(), {OpDiscovery}, CmdReset(),
		CmdInit(), CmdHome(), CmdResolution(imgInternal.HighRes),
		imageLine(t, make([]byte, imgInternal.HighResWidth)...),
		CmdHome(),
	}
}

func TestNewPrinterValidates(t *testing.T) {
	_, err := NewPrinter(nil, testConfig())
	assert.Error(t, err)

	cfg := testConfig()
	cfg.CommandTimeout = 0
	_, err = NewPrinter(simOpener(NewSimulator(nil)), cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Burst = MaxPayload + 1
	_, err = NewPrinter(simOpener(NewSimulator(nil)), cfg)
	assert.Error(t, err)
}

func TestInitialize(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())

	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, HeadPosition{}, p.Head())
	assert.Equal(t, initSequence(t), sim.Commands())
	assert.Equal(t, len(initSequence(t))-1, p.Stats().Commands, "the discovery probe bypasses SendCommand")
}

func TestInitializeOpenError(t *testing.T) {
	p := newTestPrinter(t, func() (Link, error) { return nil, errors.New("no such port") }, testConfig())

	err := p.Initialize()
	assert.ErrorIs(t, err, ErrPortOpen)
	assert.Equal(t, StateFaulted, p.State())
}

func TestInitializeDiscoveryFailure(t *testing.T) {
	link := &fakeLink{script: func(n int, b byte) []int {
		if b == OpDiscovery {
			return []int{int(RespGotInstruction)}
		}
		return []int{int(RespGotInstruction), int(RespStatusDone)}
	}}
	p := newTestPrinter(t, func() (Link, error) { return link, nil }, testConfig())

	err := p.Initialize()
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.Equal(t, StateFaulted, p.State())
	assert.True(t, link.closed)
}

// droppingLink is a simulator that, once armed, reports lost data in the
// middle of the next long image line.
type droppingLink struct {
	*Simulator
	armed bool
	fired bool
}

func (d *droppingLink) Write(b []byte) (int, error) {
	n, err := d.Simulator.Write(b)
	d.mu.Lock()
	if d.armed && !d.fired && len(d.pending) > 10 && d.pending[0] == OpImageLine {
		d.replies = append(d.replies, RespPauseData, RespDroppedData)
		d.fired = true
	}
	d.mu.Unlock()
	return n, err
}

func TestInitializeRecoversAfterDroppedData(t *testing.T) {
	bad := &droppingLink{Simulator: NewSimulator(nil), armed: true}
	good := NewSimulator(nil)
	links := []Link{bad, good}

	p := newTestPrinter(t, func() (Link, error) {
		l := links[0]
		links = links[1:]
		return l, nil
	}, testConfig())

	err := p.Initialize()
	require.ErrorIs(t, err, ErrDataDropped)
	assert.Equal(t, StateFaulted, p.State())
	assert.True(t, bad.closed)

	require.NoError(t, p.Initialize())
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, initSequence(t), good.Commands())
}

func TestPrintJobFaultsOnDroppedData(t *testing.T) {
	bad := &droppingLink{Simulator: NewSimulator(nil)}
	good := NewSimulator(nil)
	links := []Link{bad, good}

	p := newTestPrinter(t, func() (Link, error) {
		l := links[0]
		links = links[1:]
		return l, nil
	}, testConfig())
	require.NoError(t, p.Initialize())
	bad.armed = true

	ink := make([]byte, 20)
	for i := range ink {
		ink[i] = 0xFF
	}
	job := &imgInternal.Job{
		Mode:  imgInternal.LowRes,
		Lines: []imgInternal.Line{{{Offset: 4, Data: ink}}, {{Data: ink}}},
	}

	err := p.PrintJob(job)
	require.ErrorIs(t, err, ErrDataDropped)
	assert.True(t, bad.fired)
	assert.Equal(t, StateFaulted, p.State())
	assert.True(t, bad.closed)
	assert.Equal(t, Stats{}, p.Stats())

	for _, cmd := range bad.Commands() {
		assert.NotEqual(t, OpFeedOut, cmd.Op(), "job aborted before the label was fed out")
	}

	assert.ErrorIs(t, p.PrintJob(job), ErrNotReady)
	assert.ErrorIs(t, p.FeedTo(p.Head().X+1), ErrNotReady)
	assert.ErrorIs(t, p.Print(image.NewGray(image.Rect(0, 0, 4, 4)), imgInternal.DefaultThreshold, imgInternal.LowRes), ErrNotReady)

	require.NoError(t, p.Initialize())
	require.NoError(t, p.PrintJob(job))
	assert.Equal(t, StateReady, p.State())
	got := good.Commands()
	assert.Equal(t, []Command{CmdHome(), CmdFeedOut()}, got[len(got)-2:])
}

func TestPrintRequiresInitialize(t *testing.T) {
	p := newTestPrinter(t, simOpener(NewSimulator(nil)), testConfig())

	err := p.Print(image.NewGray(image.Rect(0, 0, 4, 4)), imgInternal.DefaultThreshold, imgInternal.LowRes)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, p.PrintJob(&imgInternal.Job{Mode: imgInternal.LowRes}), ErrNotReady)
	assert.ErrorIs(t, p.FeedTo(1), ErrNotReady)
}

func TestPrintJobHighRes(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())
	skip := len(sim.Commands())

	job := &imgInternal.Job{
		ID:   "hires",
		Mode: imgInternal.HighRes,
		Lines: []imgInternal.Line{
			{{Offset: 2, Data: []byte{0xFF}}, {Offset: 3, Data: []byte{0x0F, 0xF0}}},
			nil,
			{{Offset: 0, Data: []byte{0x01}}},
		},
	}
	require.NoError(t, p.PrintJob(job))

	want := []Command{
		CmdResolution(imgInternal.HighRes), CmdHome(),
		{OpMoveRight, 216}, {OpMoveLeft, 216},

		{OpMoveRight, 2}, imageLine(t, 0xFF),
		{OpMoveRight, 3}, imageLine(t, 0x0F, 0xF0),
		CmdSecondField(),

		CmdHiResFeed(),

		{OpMoveLeft, 8}, imageLine(t, 0x01),
		CmdSecondField(),

		CmdHome(), CmdFeedOut(),
	}
	assert.Equal(t, want, sim.Commands()[skip:])
	assert.Equal(t, HeadPosition{X: 3, Y: 0}, p.Head())
	assert.Equal(t, StateReady, p.State())
}

func TestPrintJobLowResFeed(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())
	skip := len(sim.Commands())

	job := &imgInternal.Job{
		Mode:  imgInternal.LowRes,
		Lines: []imgInternal.Line{{{Offset: 107, Data: []byte{0x80}}}},
	}
	require.NoError(t, p.PrintJob(job))

	want := []Command{
		CmdResolution(imgInternal.LowRes), CmdHome(),
		{OpMoveRight, 108}, {OpMoveLeft, 108},
		{OpMoveRight, 107}, imageLine(t, 0x80),
		CmdHiResFeed(), CmdSecondField(),
		CmdHome(), CmdFeedOut(),
	}
	assert.Equal(t, want, sim.Commands()[skip:])
}

func TestPrintJobBurst(t *testing.T) {
	cfg := testConfig()
	cfg.Burst = 2
	p, sim := readyPrinter(t, cfg)
	skip := len(sim.Commands())

	job := &imgInternal.Job{
		Mode:  imgInternal.LowRes,
		Lines: []imgInternal.Line{{{Data: []byte{1, 2, 3, 4, 5}}}},
	}
	require.NoError(t, p.PrintJob(job))

	got := sim.Commands()[skip:]
	require.Len(t, got, 11)
	assert.Equal(t, []Command{imageLine(t, 1, 2), imageLine(t, 3, 4), imageLine(t, 5)}, got[4:7])
}

func TestPrintJobTooWide(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())
	sent := len(sim.Sent())

	job := &imgInternal.Job{
		Mode:  imgInternal.LowRes,
		Lines: []imgInternal.Line{{{Offset: 100, Data: make([]byte, 10)}}},
	}
	assert.ErrorIs(t, p.PrintJob(job), ErrJobTooWide)
	assert.Len(t, sim.Sent(), sent)
	assert.Equal(t, StateReady, p.State())
}

func TestFeedTo(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())
	skip := len(sim.Commands())

	require.NoError(t, p.FeedTo(3))
	assert.Equal(t, []Command{CmdSecondField(), CmdHiResFeed(), CmdSecondField()}, sim.Commands()[skip:])
	assert.Equal(t, 3, p.Head().X)

	sent := len(sim.Sent())
	assert.ErrorIs(t, p.FeedTo(1), ErrHeadBackward)
	assert.Len(t, sim.Sent(), sent)
	assert.Equal(t, 3, p.Head().X)

	require.NoError(t, p.FeedTo(3))
	assert.Len(t, sim.Sent(), sent)
}

func TestPrintImageEndToEnd(t *testing.T) {
	p, sim := readyPrinter(t, testConfig())
	skip := len(sim.Commands())

	// A black bar in the left half of a white square.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 8, 16, 24), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)

	require.NoError(t, p.Print(img, imgInternal.DefaultThreshold, imgInternal.LowRes))

	got := sim.Commands()[skip:]
	require.GreaterOrEqual(t, len(got), 6)
	assert.Equal(t, CmdResolution(imgInternal.LowRes), got[0])
	assert.Equal(t, []Command{CmdHome(), CmdFeedOut()}, got[len(got)-2:])

	var lines, payload int
	for _, c := range got {
		if c.Op() == OpImageLine {
			lines++
			payload += len(c) - 2
			assert.LessOrEqual(t, len(c)-2, imgInternal.LowResWidth)
		}
	}
	assert.Positive(t, lines)
	assert.Less(t, payload, lines*imgInternal.LowResWidth, "blank columns are skipped")
	assert.Equal(t, StateReady, p.State())
}

func TestCloseAndDryRunCapture(t *testing.T) {
	var capture bytes.Buffer
	sim := NewSimulator(&capture)
	p := newTestPrinter(t, simOpener(sim), testConfig())
	require.NoError(t, p.Initialize())

	require.NoError(t, p.Close())
	assert.Equal(t, StateUninitialized, p.State())
	assert.Equal(t, sim.Sent(), capture.Bytes())
	assert.Equal(t, []byte{OpStart, OpDiscovery, OpReset, OpInit, 0x80}, capture.Bytes()[:5])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "faulted", StateFaulted.String())
	assert.Equal(t, "state(42)", State(42).String())
}
