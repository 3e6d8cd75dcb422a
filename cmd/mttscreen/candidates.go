package main

import (
	"fmt"
	"math"
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const (
	CandidatesFile = "candidate_hits.csv"
	WorkbookFile   = "candidate_hits.xlsx"

	candidatesSheet = "candidates"
	summarySheet    = "summary"
)

// Candidate is one row of the candidate table. Quantification is the drop in
// normalized signal: untreated mean minus treated mean.
type Candidate struct {
	Compound       string  `csv:"compound"`
	Quantification float64 `csv:"quantification"`
}

// WriteCandidates writes the candidate table. The header is written even when
// there are no candidates.
func WriteCandidates(path string, candidates []Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := gocsv.Marshal(candidates, f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return f.Close()
}

// WriteWorkbook saves the candidates and the full per-compound summary as two
// sheets of one Excel workbook.
func WriteWorkbook(path string, candidates []Candidate, summaries []Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, sheet := range []string{candidatesSheet, summarySheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return pfx.Err(err)
		}
	}

	rows := [][]interface{}{{"compound", "quantification"}}
	for _, c := range candidates {
		rows = append(rows, []interface{}{c.Compound, c.Quantification})
	}
	if err := setRows(f, candidatesSheet, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"compound", "untreated_mean", "treated_mean", "quantification", "t", "df", "n_untreated", "n_treated", "p_value", "significance", "candidate"}}
	for _, s := range summaries {
		rows = append(rows, []interface{}{
			s.Compound,
			cellFloat(s.UntreatedMean),
			cellFloat(s.TreatedMean),
			cellFloat(s.Quantification),
			cellFloat(s.Test.Statistic),
			cellFloat(s.Test.DF),
			s.Test.N1,
			s.Test.N2,
			cellFloat(s.Test.PValue),
			s.Marker,
			s.Hit,
		})
	}
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return pfx.Err(err)
	}

	if err := f.SaveAs(path); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return pfx.Err(err)
		}

		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return pfx.Err(fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err))
		}
	}

	return nil
}

// cellFloat leaves non-finite values as text, since a spreadsheet cell cannot
// hold NaN or Inf.
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}

	return v
}
