package image

// Mode selects the printer resolution.
type Mode int

const (
	LowRes Mode = iota
	HighRes
)

// Printable area in dots. Two heights appear in the device notes
// (255 and 258); 255 is the one the printer was verified against.
const (
	LowResWidth   = 108
	LowResHeight  = 255
	HighResWidth  = 2 * LowResWidth
	HighResHeight = 2 * LowResHeight
)

// ModeOf maps the usual "hi-res" flag to a Mode.
func ModeOf(highRes bool) Mode {
	if highRes {
		return HighRes
	}
	return LowRes
}

// MaxWidth is the label width in dots, i.e. the number of bytes in a device line.
func (m Mode) MaxWidth() int {
	if m == HighRes {
		return HighResWidth
	}
	return LowResWidth
}

// MaxHeight is the maximum image height in rows before it gets cropped.
func (m Mode) MaxHeight() int {
	if m == HighRes {
		return HighResHeight
	}
	return LowResHeight
}

func (m Mode) String() string {
	if m == HighRes {
		return "high-res"
	}
	return "low-res"
}
