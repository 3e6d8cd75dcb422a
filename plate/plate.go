// Package plate loads MTT viability assay plates and turns raw absorbances
// into background-corrected, control-normalized values.
//
// A plate file holds one compound's readings: an unlabeled index column, a
// header of well names, and three labeled rows. Row A is the untreated
// control, row B the cells treated with the compound, and row C the no-cell
// background.
package plate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/mttscreen"
	"github.com/carbocation/pfx"
)

// Row labels as they appear in the first column of a plate file.
const (
	RowUntreated  = "A"
	RowTreated    = "B"
	RowBackground = "C"
)

// FileSuffix identifies plate files; what precedes it is the compound name.
const FileSuffix = "_MTT.csv"

const (
	UntreatedLabel  = "Untreated"
	BackgroundLabel = "Background"
)

// Plate is the raw (or corrected) measurement table for one compound, already
// transposed so each sample group is a slice of replicate wells.
type Plate struct {
	Compound string

	// Wells are the replicate column headers, in file order. Every group has
	// exactly one value per well.
	Wells []string

	Untreated  []float64
	Treated    []float64
	Background []float64
}

// CompoundFromFilename strips FileSuffix from the base name of path. The
// second return value is false when the name does not carry the suffix.
func CompoundFromFilename(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileSuffix) {
		return "", false
	}

	return strings.TrimSuffix(base, FileSuffix), true
}

// LoadPlate reads the plate stored at path. Compressed files are read
// transparently.
func LoadPlate(path string) (*Plate, error) {
	compound, ok := CompoundFromFilename(path)
	if !ok {
		return nil, pfx.Err(fmt.Errorf("%s does not end with %s", path, FileSuffix))
	}

	f, err := mttscreen.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadPlate(f, compound)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// ReadPlate parses a plate table from r. Rows other than A, B and C are
// ignored; a missing or repeated A, B or C row is an error.
func ReadPlate(r io.Reader, compound string) (*Plate, error) {
	body, delim, err := mttscreen.DelimitedReader(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	cr := csv.NewReader(body)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	entries, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(entries) < 1 {
		return nil, pfx.Err(fmt.Errorf("no entries in the plate file"))
	}

	header := entries[0]
	if len(header) < 2 {
		return nil, pfx.Err(fmt.Errorf("header has %d columns; expected an index column and at least one well", len(header)))
	}

	out := &Plate{
		Compound: compound,
		Wells:    make([]string, 0, len(header)-1),
	}
	for _, well := range header[1:] {
		out.Wells = append(out.Wells, strings.TrimSpace(well))
	}

	seen := make(map[string]struct{})
	for i, row := range entries[1:] {
		if len(row) != len(header) {
			return nil, pfx.Err(fmt.Errorf("line %d has %d columns but the header has %d", i+2, len(row), len(header)))
		}

		label := strings.TrimSpace(row[0])

		var dest *[]float64
		switch label {
		case RowUntreated:
			dest = &out.Untreated
		case RowTreated:
			dest = &out.Treated
		case RowBackground:
			dest = &out.Background
		default:
			continue
		}

		if _, dup := seen[label]; dup {
			return nil, pfx.Err(fmt.Errorf("row %s appears more than once", label))
		}
		seen[label] = struct{}{}

		values := make([]float64, 0, len(row)-1)
		for j, cell := range row[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("row %s, well %s: %w", label, out.Wells[j], err))
			}
			values = append(values, v)
		}
		*dest = values
	}

	for _, label := range []string{RowUntreated, RowTreated, RowBackground} {
		if _, exists := seen[label]; !exists {
			return nil, pfx.Err(fmt.Errorf("row %s not found", label))
		}
	}

	return out, nil
}

// missingTokens are the cell values read as missing, mirroring the usual
// spreadsheet and data-frame conventions.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"#N/A": {},
	"NaN":  {},
	"nan":  {},
	"-nan": {},
	"null": {},
	"NULL": {},
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if _, missing := missingTokens[cell]; missing {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}
