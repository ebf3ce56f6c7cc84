// Package output writes finished hitter summaries to files and message buses.
package output

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/baseball-sim/run-expectancy/models"
)

// DefaultCSVPath is where the CLI writes results unless told otherwise.
const DefaultCSVPath = "players.csv"

var csvHeader = []string{"avg", "obp", "slg", "num_innings", "runs", "runs_per_9"}

// CSVWriter writes each run's summaries to a CSV file, replacing its contents.
type CSVWriter struct {
	Path string
}

// NewCSVWriter creates a writer for path.
func NewCSVWriter(path string) *CSVWriter {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVWriter{Path: path}
}

// Write implements the result sink interface.
func (c *CSVWriter) Write(_ context.Context, _ string, summaries []models.HitterSummary) error {
	f, err := os.Create(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	if err := WriteSummaries(f, summaries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", c.Path, err)
	}
	return f.Close()
}

// WriteSummaries writes a header and one row per summary, ordered by OBP, SLG
// then AVG.
func WriteSummaries(w io.Writer, summaries []models.HitterSummary) error {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b models.HitterSummary) int {
		return cmp.Or(
			cmp.Compare(a.OBP, b.OBP),
			cmp.Compare(a.SLG, b.SLG),
			cmp.Compare(a.AVG, b.AVG),
		)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sorted {
		record := []string{
			strconv.FormatFloat(s.AVG, 'f', 4, 64),
			strconv.FormatFloat(s.OBP, 'f', 4, 64),
			strconv.FormatFloat(s.SLG, 'f', 4, 64),
			strconv.Itoa(s.NumInnings),
			strconv.Itoa(s.Runs),
			strconv.FormatFloat(s.RunsPerNine(), 'f', 3, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
