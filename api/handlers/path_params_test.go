package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func routedParam(t *testing.T, target string) string {
	t.Helper()
	var got string
	r := chi.NewRouter()
	r.Get("/fig/{field}/{category}", func(w http.ResponseWriter, req *http.Request) {
		got = urlParam(req, "category")
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected route match for %s, got %d", target, rr.Code)
	}
	return got
}

func TestURLParamDecodesOnce(t *testing.T) {
	cases := map[string]string{
		"/fig/severity/Exfiltration":  "Exfiltration",
		"/fig/severity/Initial%20A":   "Initial A",
		"/fig/severity/Lateral%2FMov": "Lateral/Mov",
		"/fig/severity/Cat%2541":      "Cat%41",
	}
	for target, want := range cases {
		if got := routedParam(t, target); got != want {
			t.Fatalf("%s: expected %q, got %q", target, want, got)
		}
	}
}

func TestChartPathEscapesCategory(t *testing.T) {
	if got := chartPath("/fig", "grade", "Lateral/Mov"); got != "/fig/grade/Lateral%2FMov" {
		t.Fatalf("unexpected path %q", got)
	}
}
