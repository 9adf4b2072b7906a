package image

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentLine(t *testing.T) {
	tests := []struct {
		name string
		line []byte
		want Line
	}{
		{"blank", []byte{0, 0, 0}, nil},
		{"empty", nil, nil},
		{"full", []byte{1, 2, 3}, Line{{Offset: 0, Data: []byte{1, 2, 3}}}},
		{"gap", []byte{0, 0, 5, 0, 7, 8, 0}, Line{
			{Offset: 2, Data: []byte{5}},
			{Offset: 1, Data: []byte{7, 8}},
		}},
		{"values do not split runs", []byte{0xFF, 0x01, 0x80}, Line{{Offset: 0, Data: []byte{0xFF, 0x01, 0x80}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SegmentLine(tc.line))
		})
	}
}

func TestSegmentLineReconstructs(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		line := make([]byte, 1+r.Intn(216))
		for j := range line {
			if r.Intn(3) == 0 {
				line[j] = byte(1 + r.Intn(255))
			}
		}
		segs := SegmentLine(line)
		for _, s := range segs {
			require.GreaterOrEqual(t, s.Len(), 1)
			require.GreaterOrEqual(t, s.Offset, 0)
		}
		assert.Equal(t, line, segs.Reconstruct(len(line)))
	}
}

func TestSegmentizeStripsTrailingBlankLines(t *testing.T) {
	for n := 0; n <= 3; n++ {
		lines := [][]byte{
			{0, 1, 0},
			{0, 0, 0}, // blank in the middle stays
			{2, 0, 0},
		}
		for i := 0; i < n; i++ {
			lines = append(lines, []byte{0, 0, 0})
		}

		job := Segmentize(lines, LowRes)
		assert.Len(t, job.Lines, len(lines)-n)
		assert.Empty(t, job.Lines[1])
		assert.NotEmpty(t, job.ID)
	}
}

func TestStripTrailing(t *testing.T) {
	assert.Empty(t, StripTrailing(nil))
	assert.Empty(t, StripTrailing([]Line{nil, {}}))
	got := StripTrailing([]Line{nil, {{Data: []byte{1}}}, nil})
	assert.Len(t, got, 2)
}
