package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMagnitude(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
		want []int
	}{
		{"zero", 0, 255, nil},
		{"negative", -3, 255, nil},
		{"fits", 108, 255, []int{108}},
		{"exact", 255, 255, []int{255}},
		{"split", 600, 255, []int{255, 255, 90}},
		{"no limit", 600, 0, []int{600}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitMagnitude(tc.n, tc.max))
		})
	}
}

func TestChunk(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}

	assert.Nil(t, Chunk(nil, 2))
	assert.Equal(t, [][]byte{b}, Chunk(b, 0))
	assert.Equal(t, [][]byte{b}, Chunk(b, 5))
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}, {5}}, Chunk(b, 2))
}
