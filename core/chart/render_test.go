package chart

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"incidentdash/core/aggregate"
	"incidentdash/core/dashboard"
	"incidentdash/core/incidents"
	"incidentdash/core/projection"
)

func sampleData() dashboard.ChartData {
	d := func(n int) time.Time { return time.Date(2024, time.June, n, 0, 0, 0, 0, time.UTC) }
	return dashboard.ChartData{
		Query:  dashboard.Query{Category: "Exfiltration", Field: incidents.FieldSeverity, Mode: dashboard.Historical{}},
		Points: []aggregate.Point{{Date: d(1), Value: 5}, {Date: d(2), Value: 7}, {Date: d(3), Value: 9}},
	}
}

func TestRenderProducesPNGOfRequestedSize(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleData(), Options{WidthPx: 320, HeightPx: 240}); err != nil {
		t.Fatalf("render: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Fatalf("expected 320x240, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRenderWithProjectionAndEmptySeries(t *testing.T) {
	data := sampleData()
	data.Query.Mode = dashboard.Projected{TargetDate: time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)}
	data.Projection = &projection.Projection{TargetDate: time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), Value: 13}
	var buf bytes.Buffer
	if err := Render(&buf, data, Options{}); err != nil {
		t.Fatalf("render projected: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}

	buf.Reset()
	empty := dashboard.ChartData{Query: dashboard.Query{Category: "None", Field: incidents.FieldGrade}}
	if err := Render(&buf, empty, Options{}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected image bytes for empty series")
	}
}

func TestTitle(t *testing.T) {
	data := sampleData()
	if got := Title(data); got != "Exfiltration cases of type Severity by Date" {
		t.Fatalf("unexpected title %q", got)
	}
	data.Projection = &projection.Projection{TargetDate: time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC), Value: 6}
	if got := Title(data); got != "By 07/04/24 for Exfiltration cases, the average Severity will be 6" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestBuildAxisLabels(t *testing.T) {
	data := sampleData()
	data.Query.Field = incidents.FieldGrade
	p, err := build(data)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.X.Label.Text != "Date" || p.Y.Label.Text != "Grade" {
		t.Fatalf("unexpected axis labels %q %q", p.X.Label.Text, p.Y.Label.Text)
	}
}
