// mttscreen analyzes a directory of MTT viability plates, one file per
// compound named <compound>_MTT.csv. For every plate it writes the
// normalized values, a results summary and a swarm plot, and it collects the
// compounds whose treated wells differ significantly from the untreated
// control into analysis_results/candidate_hits.csv.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	_ "github.com/carbocation/mttscreen/compileinfoprint"
)

const DefaultYLabel = "Relative corrected absorbance"

func main() {
	var dir, yLabel string
	var display, preview, workbook bool
	var alpha float64

	flag.StringVar(&dir, "dir", ".", "Directory containing the *_MTT.csv plate files. Outputs are written beneath it.")
	flag.StringVar(&yLabel, "ylabel", DefaultYLabel, "Y-axis label of the swarm plots")
	flag.BoolVar(&display, "display", true, "Print a text rendering of each plot to stdout")
	flag.BoolVar(&preview, "preview", false, "Also save a PNG next to each PDF plot")
	flag.BoolVar(&workbook, "xlsx", false, "Also save the candidates and a per-compound summary as an Excel workbook")
	flag.Float64Var(&alpha, "alpha", DefaultAlpha, "A compound is a candidate hit when its p-value is strictly below this value")
	flag.Parse()

	if dir == "" || alpha <= 0 || alpha > 1 {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var out io.Writer
	if display {
		out = os.Stdout
	}

	summaries, err := Run(Config{
		Dir:      dir,
		YLabel:   yLabel,
		Alpha:    alpha,
		Display:  out,
		Preview:  preview,
		Workbook: workbook,
	})
	if err != nil {
		log.Fatalln(err)
	}

	hits := 0
	for _, s := range summaries {
		if s.Hit {
			hits++
		}
	}

	log.Printf("Analyzed %d plates; %d candidate hits\n", len(summaries), hits)
}
