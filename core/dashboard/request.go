package dashboard

import (
	"fmt"
	"strings"
	"time"

	"incidentdash/core/incidents"
)

// ChartRequest selects what a chart shows. The only implementations are
// Historical and Projected.
type ChartRequest interface {
	chartRequest()
	Mode() string
}

type Historical struct{}

type Projected struct {
	TargetDate time.Time
}

func (Historical) chartRequest() {}
func (Projected) chartRequest()  {}

func (Historical) Mode() string { return "historical" }
func (Projected) Mode() string  { return "projected" }

// Query carries everything one chart needs; nothing is kept between requests.
type Query struct {
	Category string
	Field    incidents.Field
	Mode     ChartRequest
}

// ParseQuery validates raw path/query values. An empty date selects the
// historical chart; otherwise the date is read in MM/DD/YY form.
func ParseQuery(category, field, date string) (Query, error) {
	f, err := incidents.ParseField(field)
	if err != nil {
		return Query{}, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return Query{}, fmt.Errorf("%w: empty category", ErrInvalidQuery)
	}
	q := Query{Category: category, Field: f, Mode: Historical{}}
	if date = strings.TrimSpace(date); date != "" {
		target, err := incidents.ParseDate(date)
		if err != nil {
			return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		q.Mode = Projected{TargetDate: target}
	}
	return q, nil
}
