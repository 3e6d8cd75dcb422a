package swarmplot

import "math"

// Significance maps a p-value to the conventional star marker. NaN, and
// anything at or above 0.05, is "ns".
func Significance(p float64) string {
	switch {
	case p < 0.0005:
		return "***"
	case p < 0.005:
		return "**"
	case p < 0.05:
		return "*"
	}

	return "ns"
}

// Bracket is the three-segment line joining the two categories above the
// data, plus the anchor of the significance marker. X values are category
// positions.
type Bracket struct {
	X1, X2 float64

	// Base is the height of the bracket's feet; Top adds the bracket height.
	Base, Top float64

	MarkerX, MarkerY float64
}

// NewBracket places the bracket relative to the largest plotted value.
func NewBracket(yMax float64) Bracket {
	base := 1.1 * yMax
	h := 0.05 * yMax

	return Bracket{
		X1:      0,
		X2:      1,
		Base:    base,
		Top:     base + h,
		MarkerX: 0.5,
		MarkerY: base + 1.25*h,
	}
}

// Points are the vertices of the bracket, foot to foot.
func (b Bracket) Points() [4][2]float64 {
	return [4][2]float64{
		{b.X1, b.Base},
		{b.X1, b.Top},
		{b.X2, b.Top},
		{b.X2, b.Base},
	}
}

func (b Bracket) valid() bool {
	for _, v := range []float64{b.Base, b.Top, b.MarkerY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
