// Package projection extrapolates an aggregated series with an ordinary
// least-squares line fitted over its trailing window.
package projection

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"incidentdash/core/aggregate"
)

const (
	DefaultWindow = 30
	// A line through fewer than two distinct dates is undefined.
	MinPoints = 2
)

var ErrInsufficientData = errors.New("insufficient data for projection")

type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: have %d points, need %d", ErrInsufficientData, e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

type Projection struct {
	TargetDate time.Time `json:"target_date"`
	Value      int       `json:"value"`
	Intercept  float64   `json:"intercept"`
	Slope      float64   `json:"slope"`
	Window     int       `json:"window"`
}

// Project fits value = a + b*ordinal over the last window points and
// evaluates it at target, truncated toward zero. points must be ascending.
func Project(points []aggregate.Point, target time.Time, window int) (Projection, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(points) > window {
		points = points[len(points)-window:]
	}
	if len(points) < MinPoints {
		return Projection{}, &InsufficientDataError{Have: len(points), Need: MinPoints}
	}
	// Re-base ordinals on the first window point; the fit is translation
	// invariant and small x keeps float error off the truncation boundary.
	base := Ordinal(points[0].Date)
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(Ordinal(p.Date) - base)
		ys[i] = p.Value
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	x := float64(Ordinal(target) - base)
	return Projection{
		TargetDate: target,
		Value:      int(alpha + beta*x),
		Intercept:  alpha,
		Slope:      beta,
		Window:     len(points),
	}, nil
}

// Ordinal is the number of whole days between 1970-01-01 and t's calendar date.
func Ordinal(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
