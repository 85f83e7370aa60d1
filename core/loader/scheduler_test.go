package loader

import (
	"context"
	"testing"
	"time"

	"incidentdash/config"
)

func TestSchedulerDisabledWithoutSchedule(t *testing.T) {
	l, _, _, _ := setupLoader(t)
	s := NewScheduler(config.LoaderConfig{CSVPath: "x.csv"}, l, nil)
	if err := s.StartWithContext(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.running {
		t.Fatalf("expected scheduler to stay idle without a schedule")
	}
	if err := s.StopWithContext(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	l, _, _, _ := setupLoader(t)
	s := NewScheduler(config.LoaderConfig{CSVPath: "x.csv", ReloadSchedule: "every tuesday"}, l, nil)
	if err := s.StartWithContext(context.Background()); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}

func TestSchedulerRunOnceReloads(t *testing.T) {
	l, is, runs, _ := setupLoader(t)
	path := writeCSV(t, sampleCSV)
	s := NewScheduler(config.LoaderConfig{CSVPath: path, ReloadSchedule: "@every 1h"}, l, nil)
	ctx := context.Background()
	if err := s.StartWithContext(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.RunOnce(ctx)
	n, _ := is.CountIncidents(ctx)
	if n != 3 {
		t.Fatalf("expected 3 rows after reload, got %d", n)
	}
	items, _ := runs.ListRecent(ctx, 5)
	if len(items) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(items))
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.StopWithContext(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
