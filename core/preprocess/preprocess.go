// Package preprocess converts the raw incident export into the six-column
// CSV consumed by the loader, deriving the combined severity score.
package preprocess

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"incidentdash/core/incidents"
)

const fillValue = "Unknown"

var (
	ErrMissingColumn = errors.New("missing column")

	outputHeader = []string{"incident_id", "date", "category", "grade", "severity", "system"}

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

type column int

const (
	colIncidentID column = iota
	colTimestamp
	colCategory
	colGrade
	colOrgID
)

var sourceColumns = map[string]column{
	"IncidentId":    colIncidentID,
	"Timestamp":     colTimestamp,
	"Category":      colCategory,
	"IncidentGrade": colGrade,
	"OrgId":         colOrgID,
}

type Stats struct {
	Read    int `json:"read"`
	Written int `json:"written"`
	// rows dropped because the timestamp did not parse
	BadTimestamps int `json:"bad_timestamps"`
}

// Convert streams the raw export from r to w. Extra source columns are
// ignored, empty cells become "Unknown" and rows without a readable
// timestamp are dropped.
func Convert(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	in := csv.NewReader(r)
	in.FieldsPerRecord = -1
	in.ReuseRecord = true
	header, err := in.Read()
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return stats, err
	}
	out := csv.NewWriter(w)
	if err := out.Write(outputHeader); err != nil {
		return stats, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", stats.Read+2, err)
		}
		stats.Read++
		get := func(c column) string {
			i := idx[c]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		grade := get(colGrade)
		category := get(colCategory)
		ts, ok := parseTimestamp(get(colTimestamp))
		if !ok {
			stats.BadTimestamps++
			continue
		}
		severity := incidents.Severity(incidents.ParseGrade(grade), incidents.ParseCategory(category))
		line := []string{
			fill(get(colIncidentID)),
			incidents.FormatDate(ts),
			fill(category),
			fill(grade),
			strconv.Itoa(severity),
			fill(get(colOrgID)),
		}
		if err := out.Write(line); err != nil {
			return stats, err
		}
		stats.Written++
	}
	out.Flush()
	return stats, out.Error()
}

func indexColumns(header []string) (map[column]int, error) {
	idx := make(map[column]int, len(sourceColumns))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if c, ok := sourceColumns[name]; ok {
			idx[c] = i
		}
	}
	for name, c := range sourceColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fill(s string) string {
	if s == "" {
		return fillValue
	}
	return s
}
