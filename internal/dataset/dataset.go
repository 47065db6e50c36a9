// Package dataset loads the health-survey dataset behind the analytics views.
// The dataset is delimited text with a header row; it is parsed once into
// dynamically typed rows and cached together with precomputed metadata.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultTargetColumn is used when no header mentions diabetes.
const DefaultTargetColumn = "Diabetes_012"

var delimiterCandidates = []rune{',', '\t', ';', '|'}

// inference looks at this many leading records
const sniffRecords = 10

// Row maps column name to a float64, a string, or nil for an absent cell.
type Row map[string]any

// Dataset is immutable after Parse returns.
type Dataset struct {
	Rows           []Row
	Columns        []string
	TargetColumn   string
	FeatureColumns []string
	Metadata       Metadata
}

type ClassDistribution struct {
	Negative int `json:"negative"`
	Positive int `json:"positive"`
}

type FeatureTypes struct {
	Numeric int `json:"numeric"`
}

// Metadata is computed once at load time.
type Metadata struct {
	TotalRecords      int               `json:"total_records"`
	Features          int               `json:"features"`
	TargetVariable    string            `json:"target_variable"`
	ClassDistribution ClassDistribution `json:"class_distribution"`
	MissingValues     int               `json:"missing_values"`
	FeatureTypes      FeatureTypes      `json:"feature_types"`
}

// Outcome classifies the target cell of row.
func (d *Dataset) Outcome(row Row) Outcome {
	return ClassifyOutcome(row[d.TargetColumn])
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Parse reads delimited text into a Dataset. The delimiter is inferred.
func Parse(data []byte) (*Dataset, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty dataset")
	}

	r := newReader(data, InferDelimiter(data))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
		if j, dup := seen[columns[i]]; dup {
			return nil, fmt.Errorf("duplicate column %q at positions %d and %d", columns[i], j+1, i+1)
		}
		seen[columns[i]] = i
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(rows)+1, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = typeCell(rec[i])
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("dataset has a header but no records")
	}

	d := &Dataset{
		Rows:         rows,
		Columns:      columns,
		TargetColumn: detectTarget(columns),
	}
	for _, c := range columns {
		if c != d.TargetColumn {
			d.FeatureColumns = append(d.FeatureColumns, c)
		}
	}
	d.Metadata = computeMetadata(d)
	return d, nil
}

// InferDelimiter picks the candidate that splits the leading records into a
// consistent number (>1) of fields. Failing that, the candidate giving the
// widest header wins, and comma is the fallback.
func InferDelimiter(data []byte) rune {
	best, bestWidth := ',', 1
	for _, d := range delimiterCandidates {
		r := newReader(data, d)
		width, consistent := 0, true
		for i := 0; i < sniffRecords; i++ {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				consistent = false
				break
			}
			if i == 0 {
				width = len(rec)
			} else if len(rec) != width {
				consistent = false
			}
		}
		if width < 2 {
			continue
		}
		if consistent {
			return d
		}
		if width > bestWidth {
			best, bestWidth = d, width
		}
	}
	return best
}

func newReader(data []byte, comma rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

func detectTarget(columns []string) string {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), "diabetes") {
			return c
		}
	}
	return DefaultTargetColumn
}

func computeMetadata(d *Dataset) Metadata {
	m := Metadata{
		TotalRecords:   len(d.Rows),
		Features:       len(d.FeatureColumns),
		TargetVariable: d.TargetColumn,
	}

	numeric := make(map[string]bool, len(d.FeatureColumns))
	seen := make(map[string]bool, len(d.FeatureColumns))
	for _, c := range d.FeatureColumns {
		numeric[c] = true
	}

	for _, row := range d.Rows {
		switch d.Outcome(row) {
		case OutcomeNegative:
			m.ClassDistribution.Negative++
		case OutcomePositive:
			m.ClassDistribution.Positive++
		}
		for _, c := range d.Columns {
			v := row[c]
			if IsMissing(v) {
				m.MissingValues++
				continue
			}
			if _, isFeature := numeric[c]; !isFeature {
				continue
			}
			seen[c] = true
			if _, ok := v.(float64); !ok {
				numeric[c] = false
			}
		}
	}

	for _, c := range d.FeatureColumns {
		if seen[c] && numeric[c] {
			m.FeatureTypes.Numeric++
		}
	}
	return m
}
