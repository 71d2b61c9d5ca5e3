// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const sniffSampleSize = 2048

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// delimiterCandidates are tried in order; earlier wins ties.
	delimiterCandidates = []rune{',', ';', '\t', '|'}

	// ErrNoHeader is returned for an empty file.
	ErrNoHeader = errors.New("csv has no header row")
)

// SniffDelimiter picks the delimiter that splits the first lines of sample
// into the most consistent, non-trivial column count. It returns ',' when
// no candidate produces more than one column.
func SniffDelimiter(sample []byte) rune {
	sample = bytes.TrimPrefix(sample, utf8BOM)
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', 0
	for _, d := range delimiterCandidates {
		if score := consistency(lines, d); score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// sampleLines returns the complete, non-blank lines of sample. A trailing
// partial line is dropped unless it is the only one.
func sampleLines(sample []byte) []string {
	text := strings.ReplaceAll(string(sample), "\r\n", "\n")
	parts := strings.Split(text, "\n")
	if len(parts) > 1 && !strings.HasSuffix(text, "\n") {
		parts = parts[:len(parts)-1]
	}
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// consistency scores d by how many lines share the header's column count,
// weighted by that count. Delimiters inside quotes are ignored.
func consistency(lines []string, d rune) int {
	header := countFields(lines[0], d)
	if header < 2 {
		return 0
	}
	matching := 0
	for _, l := range lines {
		if countFields(l, d) == header {
			matching++
		}
	}
	return matching * header
}

func countFields(line string, d rune) int {
	n, quoted := 1, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// ReadRows parses a CSV export into header-keyed rows. The delimiter is
// sniffed and a UTF-8 BOM is ignored. Empty cells are nil; cells beyond the
// header are dropped, missing trailing cells are nil. Duplicate header
// names keep their first column.
func ReadRows(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = SniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		columns[i] = h
	}

	var rows []map[string]any
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record %d: %w", line, err)
		}
		if blankRecord(record) {
			continue
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			row[col] = nil
			if i < len(record) {
				if v := strings.TrimSpace(record[i]); v != "" {
					row[col] = v
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
