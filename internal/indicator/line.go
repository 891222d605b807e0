package indicator

// Line holds one optional indicator value per bar.
// 값이 없는 구간(warm-up)은 valid=false
type Line struct {
	values []float64
	valid  []bool
}

func newLine(n int) Line {
	return Line{values: make([]float64, n), valid: make([]bool, n)}
}

func (l Line) set(i int, v float64) {
	l.values[i] = v
	l.valid[i] = true
}

// Len returns the number of bars covered by the line
func (l Line) Len() int { return len(l.values) }

// At returns the value at bar i and whether it is defined.
// Out-of-range indexes are reported as undefined.
func (l Line) At(i int) (float64, bool) {
	if i < 0 || i >= len(l.values) || !l.valid[i] {
		return 0, false
	}
	return l.values[i], true
}

// FirstValid returns the index of the first defined value, or -1
func (l Line) FirstValid() int {
	for i, ok := range l.valid {
		if ok {
			return i
		}
	}
	return -1
}
