package audio

// Column is the vertical extent of the waveform at one horizontal position
type Column struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// Envelope reduces samples to width min/max columns for drawing.
// Columns past the end of the buffer are left at zero.
func Envelope(samples []float32, width int) []Column {
	if width <= 0 {
		return nil
	}
	cols := make([]Column, width)
	n := len(samples)
	if n == 0 {
		return cols
	}

	step := n / width
	if step < 1 {
		step = 1
	}

	for x := 0; x < width; x++ {
		idx := x * step
		if idx >= n {
			break
		}
		lo, hi := float32(1), float32(-1)
		for i := 0; i < step && idx+i < n; i++ {
			v := samples[idx+i]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		cols[x] = Column{Min: lo, Max: hi}
	}
	return cols
}
