package image

import (
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Segment is one run of ink inside a device line.
type Segment struct {
	// Offset is the number of blank bytes right before this run, counted
	// from the end of the previous segment (or the line start).
	Offset int

	Data []byte
}

func (s Segment) Len() int { return len(s.Data) }

// Line is the list of ink runs of one device line. An empty Line is a blank
// line that still takes a feed step.
type Line []Segment

// Reconstruct replays offsets and data, padding with blanks up to width.
func (l Line) Reconstruct(width int) []byte {
	out := make([]byte, 0, width)
	for _, s := range l {
		out = append(out, make([]byte, s.Offset)...)
		out = append(out, s.Data...)
	}
	if len(out) < width {
		out = append(out, make([]byte, width-len(out))...)
	}
	return out
}

// Job is a segmented image ready to be sent.
type Job struct {
	ID     string
	Mode   Mode
	Lines  []Line
	Packed int // number of device lines before trailing blanks were stripped
}

// SegmentLine splits a device line into maximal ink runs. A run continues as
// long as bytes are non-zero, whatever their value.
func SegmentLine(line []byte) Line {
	var segs Line
	blank := 0
	for i := 0; i < len(line); {
		if line[i] == 0 {
			blank++
			i++
			continue
		}
		start := i
		for i < len(line) && line[i] != 0 {
			i++
		}
		segs = append(segs, Segment{Offset: blank, Data: line[start:i]})
		blank = 0
	}
	return segs
}

// Segmentize segments every line and drops the blank lines at the bottom of
// the image, so the label is not fed further than needed.
func Segmentize(lines [][]byte, mode Mode) *Job {
	job := &Job{
		ID:     newJobID(),
		Mode:   mode,
		Packed: len(lines),
	}
	for _, l := range lines {
		job.Lines = append(job.Lines, SegmentLine(l))
	}
	job.Lines = StripTrailing(job.Lines)
	return job
}

// StripTrailing removes empty lines from the end.
func StripTrailing(lines []Line) []Line {
	n := len(lines)
	for n > 0 && len(lines[n-1]) == 0 {
		n--
	}
	return lines[:n]
}

func newJobID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
