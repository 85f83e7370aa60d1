package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"incidentdash/core/chart"
	"incidentdash/core/dashboard"
	"incidentdash/core/incidents"
	"incidentdash/core/projection"
	"incidentdash/core/telemetry"
	"incidentdash/core/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const (
	formDateLayout = "2006-01-02"
	defaultPrompt  = "Please select a category to analyze."
)

// notices are the only messages the home page will show.
var notices = map[string]string{
	"insufficient": "Not enough data points to project this category.",
	"invalid":      "Choose a category, a metric and a valid date.",
}

type DashboardHandler struct {
	svc     *dashboard.Service
	opts    chart.Options
	metrics *telemetry.Metrics
	logger  *utils.Logger
}

func NewDashboardHandler(svc *dashboard.Service, opts chart.Options, metrics *telemetry.Metrics, logger *utils.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, opts: opts, metrics: metrics, logger: logger}
}

type homePage struct {
	Heading      string
	Message      string
	Categories   []string
	Fields       []incidents.Field
	DefaultField incidents.Field
}

type chartPage struct {
	Heading   string
	Message   string
	Category  string
	Field     incidents.Field
	FigureURL string
	DateValue string
	Width     int
	Height    int
}

func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := homePage{
		Heading:      "Security Incidents",
		Message:      defaultPrompt,
		Fields:       incidents.Fields,
		DefaultField: incidents.FieldSeverity,
	}
	if msg, ok := notices[r.URL.Query().Get("notice")]; ok {
		page.Message = msg
	}
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		h.logger.Errorf("list categories: %v", err)
		page.Message = "Incident categories are unavailable."
	}
	page.Categories = categories
	h.render(w, "index.html", page)
}

func (h *DashboardHandler) SubmitSystem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	category := strings.TrimSpace(r.PostForm.Get("category"))
	field, err := incidents.ParseField(r.PostForm.Get("data_request"))
	if category == "" || err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	http.Redirect(w, r, chartPath("/api/incidents", string(field), category), http.StatusFound)
}

func (h *DashboardHandler) SubmitProjection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	category := strings.TrimSpace(r.PostForm.Get("category"))
	field, err := incidents.ParseField(r.PostForm.Get("data_request"))
	if category == "" || err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	target, err := time.Parse(formDateLayout, strings.TrimSpace(r.PostForm.Get("date")))
	if err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	dest := "/api/incidents/" + url.PathEscape(string(field)) + "/projection/" + url.PathEscape(category) +
		"?date=" + url.QueryEscape(incidents.FormatDate(target))
	http.Redirect(w, r, dest, http.StatusFound)
}

// History renders the page for a historical chart.
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	q, err := dashboard.ParseQuery(urlParam(r, "category"), urlParam(r, "field"), "")
	if err != nil {
		redirectHome(w, r, "invalid")
		return
	}
	h.render(w, "chart.html", chartPage{
		Heading:   chart.Title(dashboard.ChartData{Query: q}),
		Category:  q.Category,
		Field:     q.Field,
		FigureURL: chartPath("/fig", string(q.Field), q.Category),
		Width:     h.opts.WidthPx,
		Height:    h.opts.HeightPx,
	})
}

// Projection renders the projected chart page. The fit runs here as well so
// that a category without enough points sends the user back home.
func (h *DashboardHandler) Projection(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	q, err := dashboard.ParseQuery(urlParam(r, "category"), urlParam(r, "field"), date)
	if err != nil || strings.TrimSpace(date) == "" {
		redirectHome(w, r, "invalid")
		return
	}
	data, err := h.svc.Series(r.Context(), q)
	if errors.Is(err, projection.ErrInsufficientData) {
		redirectHome(w, r, "insufficient")
		return
	}
	if err != nil {
		h.logger.Errorf("projection page %s/%s: %v", q.Category, q.Field, err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	target := data.Projection.TargetDate
	h.render(w, "chart.html", chartPage{
		Heading:   chart.Title(data),
		Category:  q.Category,
		Field:     q.Field,
		FigureURL: chartPath("/fig", string(q.Field), q.Category) + "?date=" + url.QueryEscape(incidents.FormatDate(target)),
		DateValue: target.Format(formDateLayout),
		Width:     h.opts.WidthPx,
		Height:    h.opts.HeightPx,
	})
}

// Figure serves the chart PNG. A date query parameter selects the projected chart.
func (h *DashboardHandler) Figure(w http.ResponseWriter, r *http.Request) {
	q, err := dashboard.ParseQuery(urlParam(r, "category"), urlParam(r, "field"), r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	data, err := h.svc.Series(r.Context(), q)
	if errors.Is(err, projection.ErrInsufficientData) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.logger.Errorf("figure %s/%s: %v", q.Category, q.Field, err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, data, h.opts); err != nil {
		h.logger.Errorf("render %s/%s: %v", q.Category, q.Field, err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveChart(q.Mode.Mode())
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *DashboardHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Errorf("template %s: %v", name, err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func redirectHome(w http.ResponseWriter, r *http.Request, notice string) {
	dest := "/"
	if notice != "" {
		dest += "?notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, dest, http.StatusFound)
}
