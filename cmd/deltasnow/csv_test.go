package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

func TestReadDepthCSV(t *testing.T) {
	contents := strings.Join([]string{
		"date,hs",
		"2021-01-01,0",
		"2021-01-02,0.25",
		"2021-01-03,NA",
		"2021-01-04,",
		"2021-01-05T00:00:00Z,0.1",
		"",
	}, "\n")

	path := filepath.Join(t.TempDir(), "hs.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	readings, err := readDepthCSV(path)
	if err != nil {
		t.Fatalf("readDepthCSV: %v", err)
	}
	if len(readings) != 5 {
		t.Fatalf("got %d readings, want 5", len(readings))
	}

	if readings[1].Depth != 0.25 {
		t.Errorf("reading 1: got %v, want 0.25", readings[1].Depth)
	}
	if !math.IsNaN(readings[2].Depth) || !math.IsNaN(readings[3].Depth) {
		t.Error("NA and empty fields should read as missing values")
	}
	want := time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC)
	if !readings[4].Time.Equal(want) {
		t.Errorf("reading 4: time %v, want %v", readings[4].Time, want)
	}
}

func TestReadDepthCSVErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing columns", "foo,bar\n1,2\n"},
		{"bad timestamp", "date,hs\nyesterday,0.2\n"},
		{"bad depth", "date,hs\n2021-01-01,deep\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hs.csv")
			if err := os.WriteFile(path, []byte(tt.contents), 0o644); err != nil {
				t.Fatalf("writing input: %v", err)
			}
			if _, err := readDepthCSV(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteSWECSV(t *testing.T) {
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	results := []deltasnow.Result{
		{Time: start, SWE: 0},
		{Time: start.AddDate(0, 0, 1), SWE: 16.238834},
		{Time: start.AddDate(0, 0, 2), SWE: math.NaN()},
	}

	path := filepath.Join(t.TempDir(), "swe.csv")
	if err := writeSWECSV(path, results); err != nil {
		t.Fatalf("writeSWECSV: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if lines[0] != "date,swe" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[2] != "2021-01-02T00:00:00Z,16.238834" {
		t.Errorf("line 2: got %q", lines[2])
	}
	if lines[3] != "2021-01-03T00:00:00Z," {
		t.Errorf("missing SWE should write an empty field, got %q", lines[3])
	}
}
