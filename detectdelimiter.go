package mttscreen

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. Plate reader exports are
// usually comma separated, but tab and semicolon variants are common enough
// that we sniff rather than assume.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	// Decimal points recur at a steady rate in numeric tables, so only
	// characters that plausibly separate fields are accepted.
	for _, candidate := range delimiters {
		if len(candidate) == 0 {
			continue
		}
		switch c := rune(candidate[0]); c {
		case ',', '\t', ';', '|':
			return c
		}
	}

	return ','
}

// DelimitedReader reads all of r and returns a reader over the same bytes
// together with the detected delimiter, so the caller can parse content that
// was already consumed by detection.
func DelimitedReader(r io.Reader) (io.Reader, rune, error) {
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, 0, err
	}

	return bytes.NewReader(b), DetermineDelimiter(bytes.NewReader(b)), nil
}
