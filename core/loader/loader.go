// Package loader turns the cleaned incident CSV into a freshly built
// incidents table and reports what landed there.
package loader

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"incidentdash/core/store"
	"incidentdash/core/telemetry"
	"incidentdash/core/utils"
)

const sampleSize = 3

type Summary struct {
	RunID       string                 `json:"run_id"`
	Source      string                 `json:"source"`
	Accepted    int                    `json:"accepted"`
	Discarded   int                    `json:"discarded"`
	Inserted    int                    `json:"inserted"`
	RowCount    int64                  `json:"row_count"`
	MaxSeverity *int64                 `json:"max_severity,omitempty"`
	Sample      []store.IncidentRecord `json:"sample"`
}

type Loader struct {
	store   store.IncidentsStore
	runs    store.LoadRunsStore
	metrics *telemetry.Metrics
	logger  *utils.Logger

	// serializes reloads triggered from HTTP and the scheduler
	mu sync.Mutex
}

func NewLoader(is store.IncidentsStore, runs store.LoadRunsStore, metrics *telemetry.Metrics, logger *utils.Logger) *Loader {
	return &Loader{store: is, runs: runs, metrics: metrics, logger: logger}
}

// Load rebuilds the incidents table from sourcePath. The row count and max
// severity in the summary are read back from the store.
func (l *Loader) Load(ctx context.Context, sourcePath string) (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	started := utils.NowUTC()
	sum, err := l.load(ctx, Summary{Source: sourcePath})
	l.metrics.ObserveLoad(sum.Accepted, sum.Discarded, sum.Inserted, err)
	l.record(ctx, &sum, started, err)
	if err != nil {
		l.logger.Errorf("load %s failed: %v", sourcePath, err)
		return sum, err
	}
	l.logger.Printf("load %s: accepted=%d discarded=%d inserted=%d rows=%d max_severity=%s",
		sourcePath, sum.Accepted, sum.Discarded, sum.Inserted, sum.RowCount, formatSeverity(sum.MaxSeverity))
	return sum, nil
}

func (l *Loader) load(ctx context.Context, sum Summary) (Summary, error) {
	f, err := os.Open(sum.Source)
	if err != nil {
		return sum, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	rows, discarded, err := ReadRows(f)
	if err != nil {
		return sum, fmt.Errorf("read csv: %w", err)
	}
	sum.Accepted = len(rows)
	sum.Discarded = discarded
	if discarded > 0 {
		l.logger.Debugf("load %s: skipped %d malformed lines", sum.Source, discarded)
	}
	inserted, err := l.store.ReplaceAll(ctx, rows)
	if err != nil {
		return sum, fmt.Errorf("replace incidents: %w", err)
	}
	sum.Inserted = inserted

	if sum.Sample, err = l.store.Sample(ctx, sampleSize); err != nil {
		return sum, fmt.Errorf("sample incidents: %w", err)
	}
	if sum.RowCount, err = l.store.CountIncidents(ctx); err != nil {
		return sum, fmt.Errorf("count incidents: %w", err)
	}
	if sum.MaxSeverity, err = l.store.MaxSeverity(ctx); err != nil {
		return sum, fmt.Errorf("max severity: %w", err)
	}
	return sum, nil
}

func (l *Loader) record(ctx context.Context, sum *Summary, started time.Time, loadErr error) {
	if l.runs == nil {
		return
	}
	run := &store.LoadRun{
		Source:      sum.Source,
		Status:      store.LoadStatusOK,
		Accepted:    sum.Accepted,
		Discarded:   sum.Discarded,
		Inserted:    sum.Inserted,
		RowCount:    sum.RowCount,
		MaxSeverity: sum.MaxSeverity,
		StartedAt:   started,
		FinishedAt:  utils.NowUTC(),
	}
	if loadErr != nil {
		run.Status = store.LoadStatusFailed
		run.Error = loadErr.Error()
	}
	if err := l.runs.Record(ctx, run); err != nil {
		l.logger.Warnf("record load run: %v", err)
		return
	}
	sum.RunID = run.ID
}

func formatSeverity(v *int64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatInt(*v, 10)
}
