package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carbocation/mttscreen/plate"
	"github.com/carbocation/mttscreen/swarmplot"
	"github.com/carbocation/mttscreen/ttest"
	"github.com/carbocation/pfx"
)

const (
	ResultsDir = "analysis_results"

	DefaultAlpha = 0.05
)

type Config struct {
	// Dir holds the plate files and receives ResultsDir and the plots.
	Dir    string
	YLabel string
	Alpha  float64

	Display  io.Writer
	Preview  bool
	Workbook bool
}

// Summary is the per-compound outcome of the analysis.
type Summary struct {
	Compound string

	UntreatedMean  float64
	TreatedMean    float64
	Quantification float64

	Test   ttest.Result
	Marker string
	Hit    bool
}

// Discover lists the plate files in dir, sorted by name.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+plate.FileSuffix))
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Glob sorts its output
	return matches, nil
}

// Run analyzes every plate in cfg.Dir in name order and writes the candidate
// table once all plates are done. The first failing plate stops the run;
// outputs for earlier plates stay on disk.
func Run(cfg Config) ([]Summary, error) {
	if cfg.Alpha == 0 {
		cfg.Alpha = DefaultAlpha
	}

	if err := os.MkdirAll(filepath.Join(cfg.Dir, ResultsDir), 0755); err != nil {
		return nil, pfx.Err(err)
	}

	files, err := Discover(cfg.Dir)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		log.Printf("No *%s files found in %s\n", plate.FileSuffix, cfg.Dir)
	}

	summaries := make([]Summary, 0, len(files))
	candidates := make([]Candidate, 0)
	for _, path := range files {
		s, err := analyze(cfg, path)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, s)

		if s.Hit {
			candidates = append(candidates, Candidate{Compound: s.Compound, Quantification: s.Quantification})
		}
	}

	if err := WriteCandidates(filepath.Join(cfg.Dir, ResultsDir, CandidatesFile), candidates); err != nil {
		return summaries, err
	}

	if cfg.Workbook {
		if err := WriteWorkbook(filepath.Join(cfg.Dir, ResultsDir, WorkbookFile), candidates, summaries); err != nil {
			return summaries, err
		}
	}

	return summaries, nil
}

func analyze(cfg Config, path string) (Summary, error) {
	compound, _ := plate.CompoundFromFilename(path)
	log.Printf("Processing %s\n", compound)

	p, err := plate.LoadPlate(path)
	if err != nil {
		return Summary{}, err
	}

	normalized, err := p.Normalize()
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}

	untreated, treated := normalized.Means()
	result := ttest.Welch(normalized.Untreated, normalized.Treated)

	s := Summary{
		Compound:       compound,
		UntreatedMean:  untreated,
		TreatedMean:    treated,
		Quantification: untreated - treated,
		Test:           result,
		Marker:         swarmplot.Significance(result.PValue),
		Hit:            result.Significant(cfg.Alpha),
	}

	if err := writeProcessed(filepath.Join(cfg.Dir, ResultsDir, compound+"_mtt_processed.csv"), normalized); err != nil {
		return s, err
	}

	if err := writeResults(filepath.Join(cfg.Dir, ResultsDir, compound+"_results.txt"), s); err != nil {
		return s, err
	}

	opts := swarmplot.Options{
		Dir:     cfg.Dir,
		Preview: cfg.Preview,
		Display: cfg.Display,
	}
	if err := swarmplot.Annotate(normalized, normalized.Columns, result, cfg.YLabel, compound+"_MTT_swarmplot", opts); err != nil {
		return s, err
	}

	return s, nil
}

func writeProcessed(path string, n *plate.Normalized) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := n.WriteCSV(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// ResultsText renders the three-line summary. There is no trailing newline.
func ResultsText(s Summary) string {
	return fmt.Sprintf("Mean of the untreated samples = %s\nMean of the treated samples = %s\np-value=%s",
		fixed(s.UntreatedMean, 2), fixed(s.TreatedMean, 2), fixed(s.Test.PValue, 4))
}

// fixed formats v with prec decimals, spelling non-finite values nan, inf
// and -inf.
func fixed(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	return strconv.FormatFloat(v, 'f', prec, 64)
}

func writeResults(path string, s Summary) error {
	if err := os.WriteFile(path, []byte(ResultsText(s)), 0644); err != nil {
		return pfx.Err(err)
	}

	return nil
}
