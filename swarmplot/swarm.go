package swarmplot

import (
	"math"
	"sort"
)

// SwarmOffsets lays out a beeswarm for one category. ys are data values;
// yPerPoint and xPerPoint convert one point of figure space into data units
// along each axis, and diameter is the marker size in points. The returned
// slice holds the horizontal offset, in data units, of each value from the
// category center. Non-finite values get offset 0 and take no space.
//
// Points are placed from the lowest value up. Each goes to the position
// closest to the center where it does not overlap an already placed point.
func SwarmOffsets(ys []float64, yPerPoint, xPerPoint, diameter float64) []float64 {
	out := make([]float64, len(ys))

	order := make([]int, 0, len(ys))
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return ys[order[a]] < ys[order[b]] })

	type point struct{ x, y float64 }
	placed := make([]point, 0, len(order))

	d2 := diameter * diameter
	overlaps := func(x, y float64) bool {
		for _, p := range placed {
			dx, dy := x-p.x, y-p.y
			if dx*dx+dy*dy < d2*(1-1e-9) {
				return true
			}
		}
		return false
	}

	for _, idx := range order {
		y := ys[idx] / yPerPoint

		candidates := []float64{0}
		for _, p := range placed {
			dy := y - p.y
			if math.Abs(dy) >= diameter {
				continue
			}
			dx := math.Sqrt(d2 - dy*dy)
			candidates = append(candidates, p.x-dx, p.x+dx)
		}

		// Closest to the center first; left before right on ties so the
		// layout is deterministic.
		sort.SliceStable(candidates, func(a, b int) bool {
			ca, cb := math.Abs(candidates[a]), math.Abs(candidates[b])
			if ca != cb {
				return ca < cb
			}
			return candidates[a] < candidates[b]
		})

		x := candidates[0]
		for _, c := range candidates {
			if !overlaps(c, y) {
				x = c
				break
			}
		}

		placed = append(placed, point{x: x, y: y})
		out[idx] = x * xPerPoint
	}

	return out
}
