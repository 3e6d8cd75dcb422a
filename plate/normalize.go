package plate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
)

// Mean is the arithmetic mean of the non-NaN values in x, or NaN when there
// are none. Missing wells therefore shrink the sample rather than poisoning
// it.
func Mean(x []float64) float64 {
	data := make(stats.Float64Data, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		data = append(data, v)
	}

	m, err := data.Mean()
	if err != nil {
		// Only returned for empty input
		return math.NaN()
	}

	return m
}

func shift(x []float64, by float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - by
	}
	return out
}

func scale(x []float64, by float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / by
	}
	return out
}

// Corrected returns a copy of the plate with the mean background absorbance
// subtracted from every well of every group. The background group itself is
// corrected too, so its corrected mean is zero.
func (p *Plate) Corrected() *Plate {
	bg := Mean(p.Background)

	return &Plate{
		Compound:   p.Compound,
		Wells:      append([]string(nil), p.Wells...),
		Untreated:  shift(p.Untreated, bg),
		Treated:    shift(p.Treated, bg),
		Background: shift(p.Background, bg),
	}
}

// Normalize background-corrects the plate and expresses the untreated and
// treated groups relative to the corrected untreated mean.
func (p *Plate) Normalize() (*Normalized, error) {
	c := p.Corrected()

	ctrl := Mean(c.Untreated)
	if math.IsNaN(ctrl) {
		return nil, pfx.Err(fmt.Errorf("%s: no usable untreated measurements", p.Compound))
	}

	return &Normalized{
		Columns:   [2]string{UntreatedLabel, p.Compound},
		Untreated: scale(c.Untreated, ctrl),
		Treated:   scale(c.Treated, ctrl),
	}, nil
}

// Normalized is the two-column table of control-normalized values. Columns
// holds the headers: UntreatedLabel, then the compound name.
type Normalized struct {
	Columns   [2]string
	Untreated []float64
	Treated   []float64
}

// Compound is the name of the treated column.
func (n *Normalized) Compound() string {
	return n.Columns[1]
}

// Column returns the values under the named header.
func (n *Normalized) Column(name string) ([]float64, error) {
	switch name {
	case n.Columns[0]:
		return n.Untreated, nil
	case n.Columns[1]:
		return n.Treated, nil
	}

	return nil, pfx.Err(fmt.Errorf("no column named %q (have %q and %q)", name, n.Columns[0], n.Columns[1]))
}

// Means returns the NaN-skipping means of the untreated and treated columns.
func (n *Normalized) Means() (untreated, treated float64) {
	return Mean(n.Untreated), Mean(n.Treated)
}

// Max is the largest non-NaN value across both columns.
func (n *Normalized) Max() float64 {
	out := math.NaN()
	for _, col := range [][]float64{n.Untreated, n.Treated} {
		for _, v := range col {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(out) || v > out {
				out = v
			}
		}
	}

	return out
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the table with a header row and no index column. Values
// are written with the fewest digits that read back to the same float64.
func (n *Normalized) WriteCSV(w io.Writer) error {
	if len(n.Untreated) != len(n.Treated) {
		return pfx.Err(fmt.Errorf("column lengths differ: %d untreated, %d treated", len(n.Untreated), len(n.Treated)))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(n.Columns[:]); err != nil {
		return pfx.Err(err)
	}

	for i := range n.Untreated {
		if err := cw.Write([]string{formatValue(n.Untreated[i]), formatValue(n.Treated[i])}); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ReadNormalized reads a table written by WriteCSV.
func ReadNormalized(r io.Reader) (*Normalized, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	entries, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(entries) < 1 {
		return nil, pfx.Err(fmt.Errorf("no header found"))
	}

	out := &Normalized{
		Columns:   [2]string{entries[0][0], entries[0][1]},
		Untreated: make([]float64, 0, len(entries)-1),
		Treated:   make([]float64, 0, len(entries)-1),
	}

	for _, row := range entries[1:] {
		u, err := parseCell(row[0])
		if err != nil {
			return nil, pfx.Err(err)
		}
		t, err := parseCell(row[1])
		if err != nil {
			return nil, pfx.Err(err)
		}
		out.Untreated = append(out.Untreated, u)
		out.Treated = append(out.Treated, t)
	}

	return out, nil
}
