package image

// The print head of the EZ30 runs across the label, so one device byte holds
// 8 pixels stacked vertically: bit k of byte j in line i is pixel
// (col j, row 8i+k), LSB on top.

// Pack packs b into device lines for the given mode.
func Pack(b *Bitonal, mode Mode) [][]byte {
	if mode == HighRes {
		return PackHighRes(b)
	}
	return PackLowRes(b)
}

// PackLowRes builds one line per 8 image rows. Rows past the bottom are blank.
func PackLowRes(b *Bitonal) [][]byte {
	lines := make([][]byte, 0, (b.Height+7)/8)
	for row := 0; row < b.Height; row += 8 {
		line := make([]byte, b.Width)
		for x := 0; x < b.Width; x++ {
			var v byte
			for k := 0; k < 8; k++ {
				v |= b.bit(x, row+k) << k
			}
			line[x] = v
		}
		lines = append(lines, line)
	}
	return lines
}

// PackHighRes builds two interlaced fields per 16 image rows. The even field
// carries rows 0,2,..,14 of the group, the odd field rows 1,3,..,15. The
// printer moves half a dot between the fields.
func PackHighRes(b *Bitonal) [][]byte {
	lines := make([][]byte, 0, 2*((b.Height+15)/16))
	for row := 0; row < b.Height; row += 16 {
		even := make([]byte, b.Width)
		odd := make([]byte, b.Width)
		for x := 0; x < b.Width; x++ {
			var e, o byte
			for k := 0; k < 8; k++ {
				e |= b.bit(x, row+2*k) << k
				o |= b.bit(x, row+2*k+1) << k
			}
			even[x], odd[x] = e, o
		}
		lines = append(lines, even, odd)
	}
	return lines
}

// Unpack is the inverse of Pack for an image of width x height.
func Unpack(lines [][]byte, width, height int, mode Mode) *Bitonal {
	if mode == HighRes {
		return UnpackHighRes(lines, width, height)
	}
	return UnpackLowRes(lines, width, height)
}

func UnpackLowRes(lines [][]byte, width, height int) *Bitonal {
	b := NewBitonal(width, height)
	for i, line := range lines {
		for x := 0; x < width && x < len(line); x++ {
			for k := 0; k < 8; k++ {
				if line[x]&(1<<k) != 0 {
					b.Set(x, 8*i+k, true)
				}
			}
		}
	}
	return b
}

func UnpackHighRes(lines [][]byte, width, height int) *Bitonal {
	b := NewBitonal(width, height)
	for i, line := range lines {
		group, field := i/2, i%2
		for x := 0; x < width && x < len(line); x++ {
			for k := 0; k < 8; k++ {
				if line[x]&(1<<k) != 0 {
					b.Set(x, 16*group+2*k+field, true)
				}
			}
		}
	}
	return b
}
