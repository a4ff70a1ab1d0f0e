package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

// Accepted timestamp layouts for the date column, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// readDepthCSV reads a snow depth series from a CSV file with a date,hs
// header. Empty, "NA" and "NaN" depth fields become missing values.
func readDepthCSV(path string) ([]deltasnow.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	dateCol, hsCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "time", "datetime":
			dateCol = i
		case "hs", "depth", "snow_depth":
			hsCol = i
		}
	}
	if dateCol < 0 || hsCol < 0 {
		return nil, fmt.Errorf("CSV header must contain date and hs columns, got %v", header)
	}

	var readings []deltasnow.Reading
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		t, err := parseTime(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		depth, err := parseDepth(record[hsCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		readings = append(readings, deltasnow.Reading{Time: t, Depth: depth})
	}
	return readings, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseDepth(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snow depth %q", s)
	}
	return v, nil
}

// writeSWECSV writes the computed series as date,swe rows. Missing results
// are written as empty fields. An empty path writes to stdout.
func writeSWECSV(path string, results []deltasnow.Result) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"date", "swe"}); err != nil {
		return err
	}
	for _, r := range results {
		swe := ""
		if !math.IsNaN(r.SWE) {
			swe = strconv.FormatFloat(r.SWE, 'f', -1, 64)
		}
		if err := w.Write([]string{r.Time.Format(time.RFC3339), swe}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
