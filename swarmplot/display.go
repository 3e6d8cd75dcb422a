package swarmplot

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/pfx"
)

const (
	displayBins  = 5
	displayWidth = 30
)

// Display writes a terminal rendering of the groups: a histogram of each,
// followed by the comparison marker and p-value.
func Display(w io.Writer, groups []Group, marker string, p float64) error {
	for _, g := range groups {
		values := make([]float64, 0, len(g.Values))
		for _, v := range g.Values {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}

		fmt.Fprintf(w, "%s (n=%d, mean=%.3f, sem=%.3f)\n", g.Name, g.N, g.Mean, g.SEM)
		if len(values) == 0 {
			continue
		}

		hist := histogram.Hist(displayBins, values)
		if err := histogram.Fprint(w, hist, histogram.Linear(displayWidth)); err != nil {
			return pfx.Err(err)
		}
	}

	if len(groups) == 2 {
		_, err := fmt.Fprintf(w, "%s vs %s: %s (p=%.4g)\n", groups[0].Name, groups[1].Name, marker, p)
		return err
	}

	return nil
}
