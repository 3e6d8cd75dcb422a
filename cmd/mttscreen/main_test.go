package main

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/carbocation/mttscreen/ttest"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

const (
	cytotoxicPlate = `,1,2,3
A,1.0312,0.9513,1.0175
B,0.4122,0.5531,0.4806
C,0,0,0
`
	inertPlate = `,1,2,3
A,1.05,0.92,1.03
B,1.05,0.92,1.03
C,0.1,0.1,0.1
`
	// Background equals untreated, so the untreated mean corrects to zero.
	flatPlate = `,1,2,3
A,1,1,1
B,0.5,0.6,0.4
C,1,1,1
`
	malformedPlate = `,1,2,3
A,1.05,0.92,1.03
B,1.05,0.92,1.03
`
)

func writePlates(t *testing.T, dir string, plates map[string]string) {
	t.Helper()
	for name, content := range plates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestResultsText(t *testing.T) {
	s := Summary{
		UntreatedMean: 1,
		TreatedMean:   0.5,
		Test:          ttest.Result{PValue: 0.0010726938474781595},
	}

	expected := "Mean of the untreated samples = 1.00\nMean of the treated samples = 0.50\np-value=0.0011"
	if got := ResultsText(s); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestResultsTextNonFinite(t *testing.T) {
	s := Summary{
		UntreatedMean: math.NaN(),
		TreatedMean:   math.Inf(-1),
		Test:          ttest.Result{PValue: math.NaN()},
	}

	expected := "Mean of the untreated samples = nan\nMean of the treated samples = -inf\np-value=nan"
	if got := ResultsText(s); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	if got := fixed(math.Inf(1), 2); got != "inf" {
		t.Errorf("expected inf, got %q", got)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writePlates(t, dir, map[string]string{
		"cyto_MTT.csv":  cytotoxicPlate,
		"inert_MTT.csv": inertPlate,
		"notes.csv":     "not a plate",
	})

	summaries, err := Run(Config{Dir: dir, YLabel: DefaultYLabel, Workbook: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 2 || summaries[0].Compound != "cyto" || summaries[1].Compound != "inert" {
		t.Fatalf("expected cyto then inert, got %+v", summaries)
	}

	cyto := summaries[0]
	if !cyto.Hit || cyto.Marker != "**" {
		t.Errorf("expected cyto to be a ** hit, got %+v", cyto)
	}
	if math.Abs(cyto.Test.PValue-0.0010726938474781595) > 1e-9 {
		t.Errorf("expected p=0.00107269, got %v", cyto.Test.PValue)
	}
	if math.Abs(cyto.UntreatedMean-1) > 1e-12 {
		t.Errorf("expected normalized untreated mean of 1, got %v", cyto.UntreatedMean)
	}

	inert := summaries[1]
	if inert.Hit || inert.Marker != "ns" {
		t.Errorf("expected inert not to be a hit, got %+v", inert)
	}

	for _, name := range []string{
		"analysis_results/cyto_mtt_processed.csv",
		"analysis_results/cyto_results.txt",
		"analysis_results/inert_mtt_processed.csv",
		"analysis_results/inert_results.txt",
		"analysis_results/" + WorkbookFile,
		"plots/cyto_MTT_swarmplot.pdf",
		"plots/inert_MTT_swarmplot.pdf",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}

	processed := readCSV(t, filepath.Join(dir, ResultsDir, "cyto_mtt_processed.csv"))
	if diff := cmp.Diff([]string{"Untreated", "cyto"}, processed[0]); diff != "" {
		t.Errorf("processed header mismatch (-want +got):\n%s", diff)
	}
	if len(processed) != 4 {
		t.Errorf("expected a header and 3 rows, got %d lines", len(processed))
	}

	results, err := os.ReadFile(filepath.Join(dir, ResultsDir, "cyto_results.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if expected := ResultsText(cyto); string(results) != expected {
		t.Errorf("expected %q, got %q", expected, string(results))
	}

	hits := readCSV(t, filepath.Join(dir, ResultsDir, CandidatesFile))
	if len(hits) != 2 {
		t.Fatalf("expected a header and one candidate, got %v", hits)
	}
	if diff := cmp.Diff([]string{"compound", "quantification"}, hits[0]); diff != "" {
		t.Errorf("candidate header mismatch (-want +got):\n%s", diff)
	}
	if hits[1][0] != "cyto" {
		t.Errorf("expected cyto as the only candidate, got %v", hits[1])
	}
	q, err := strconv.ParseFloat(hits[1][1], 64)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(q-cyto.Quantification) > 1e-12 {
		t.Errorf("expected quantification %v, got %v", cyto.Quantification, q)
	}

	wb, err := excelize.OpenFile(filepath.Join(dir, ResultsDir, WorkbookFile))
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "cyto" || rows[2][0] != "inert" {
		t.Errorf("unexpected summary sheet %v", rows)
	}
}

func TestRunWithoutHitsWritesHeader(t *testing.T) {
	dir := t.TempDir()
	writePlates(t, dir, map[string]string{"inert_MTT.csv": inertPlate})

	// Twice: existing output directories are fine.
	for i := 0; i < 2; i++ {
		if _, err := Run(Config{Dir: dir, YLabel: DefaultYLabel}); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	b, err := os.ReadFile(filepath.Join(dir, ResultsDir, CandidatesFile))
	if err != nil {
		t.Fatal(err)
	}
	if expected := "compound,quantification\n"; string(b) != expected {
		t.Errorf("expected %q, got %q", expected, string(b))
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	summaries, err := Run(Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %v", summaries)
	}

	if _, err := os.Stat(filepath.Join(dir, ResultsDir, CandidatesFile)); err != nil {
		t.Errorf("expected a header-only candidate table: %v", err)
	}
}

func TestRunStopsAtMalformedPlate(t *testing.T) {
	dir := t.TempDir()
	writePlates(t, dir, map[string]string{
		"a_MTT.csv": cytotoxicPlate,
		"b_MTT.csv": malformedPlate,
	})

	summaries, err := Run(Config{Dir: dir})
	if err == nil {
		t.Fatal("expected an error for the plate without a background row")
	}
	if len(summaries) != 1 {
		t.Errorf("expected the first plate to have been analyzed, got %d summaries", len(summaries))
	}

	if _, err := os.Stat(filepath.Join(dir, ResultsDir, "a_results.txt")); err != nil {
		t.Errorf("earlier outputs should remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ResultsDir, CandidatesFile)); !os.IsNotExist(err) {
		t.Errorf("candidate table should not be written after a failure")
	}
}

func TestHitRequiresStrictlyBelowAlpha(t *testing.T) {
	if (ttest.Result{PValue: DefaultAlpha}).Significant(DefaultAlpha) {
		t.Errorf("p equal to alpha must not be a hit")
	}
}

func TestRunZeroUntreatedMeanDoesNotStop(t *testing.T) {
	dir := t.TempDir()
	writePlates(t, dir, map[string]string{
		"a_MTT.csv":    flatPlate,
		"cyto_MTT.csv": cytotoxicPlate,
	})

	summaries, err := Run(Config{Dir: dir, YLabel: DefaultYLabel})
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected both plates to be analyzed, got %d", len(summaries))
	}

	flat := summaries[0]
	if flat.Hit || flat.Marker != "ns" || !math.IsNaN(flat.Test.PValue) {
		t.Errorf("expected a NaN, non-significant result for the flat plate, got %+v", flat)
	}

	for _, name := range []string{
		"analysis_results/a_results.txt",
		"plots/a_MTT_swarmplot.pdf",
		"plots/cyto_MTT_swarmplot.pdf",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}

	hits := readCSV(t, filepath.Join(dir, ResultsDir, CandidatesFile))
	if len(hits) != 2 || hits[1][0] != "cyto" {
		t.Errorf("expected cyto as the only candidate, got %v", hits)
	}
}
