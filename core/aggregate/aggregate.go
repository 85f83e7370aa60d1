// Package aggregate reduces raw per-incident observations to one mean value
// per calendar date.
package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"incidentdash/core/incidents"
)

type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Aggregate groups obs by date and averages field per date. Grade values are
// mapped to their 3/2/1/0 score first. The result is ascending by date with
// missing dates simply absent.
func Aggregate(obs []incidents.Observation, field incidents.Field) ([]Point, error) {
	if _, err := incidents.ParseField(string(field)); err != nil {
		return nil, err
	}
	byDate := make(map[time.Time][]float64)
	for _, o := range obs {
		v, err := numericValue(o.Value, field)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", field, incidents.FormatDate(o.Date), err)
		}
		day := truncateDay(o.Date)
		byDate[day] = append(byDate[day], v)
	}
	out := make([]Point, 0, len(byDate))
	for day, vals := range byDate {
		out = append(out, Point{Date: day, Value: stat.Mean(vals, nil)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func numericValue(raw string, field incidents.Field) (float64, error) {
	if field == incidents.FieldGrade {
		return float64(incidents.ParseGrade(raw).Score()), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
