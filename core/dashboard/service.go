// Package dashboard assembles chart data for one category and field:
// the aggregated history and, when asked, a projected value.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"incidentdash/core/aggregate"
	"incidentdash/core/projection"
	"incidentdash/core/store"
	"incidentdash/core/telemetry"
	"incidentdash/core/utils"
)

var ErrInvalidQuery = errors.New("invalid query")

type ChartData struct {
	Query      Query                  `json:"-"`
	Points     []aggregate.Point      `json:"points"`
	Projection *projection.Projection `json:"projection,omitempty"`
}

type Service struct {
	store   store.IncidentsStore
	window  int
	metrics *telemetry.Metrics
	logger  *utils.Logger
}

func NewService(is store.IncidentsStore, window int, metrics *telemetry.Metrics, logger *utils.Logger) *Service {
	if window <= 0 || window > projection.DefaultWindow {
		window = projection.DefaultWindow
	}
	return &Service{store: is, window: window, metrics: metrics, logger: logger}
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.DistinctCategories(ctx)
}

// Series reads the category's observations, averages them per date and,
// for a Projected query, extrapolates to the target date.
func (s *Service) Series(ctx context.Context, q Query) (ChartData, error) {
	if q.Mode == nil {
		q.Mode = Historical{}
	}
	data := ChartData{Query: q}
	obs, err := s.store.QueryByCategory(ctx, q.Category, q.Field)
	if err != nil {
		return data, err
	}
	points, err := aggregate.Aggregate(obs, q.Field)
	if err != nil {
		return data, fmt.Errorf("aggregate %s/%s: %w", q.Category, q.Field, err)
	}
	data.Points = points

	switch mode := q.Mode.(type) {
	case Historical:
	case Projected:
		p, err := projection.Project(points, mode.TargetDate, s.window)
		s.metrics.ObserveProjection(err)
		if err != nil {
			s.logger.Debugf("projection %s/%s: %v", q.Category, q.Field, err)
			return data, err
		}
		data.Projection = &p
	default:
		return data, fmt.Errorf("%w: mode %T", ErrInvalidQuery, q.Mode)
	}
	return data, nil
}
