package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// urlParam returns the decoded chi path parameter. chi matches on RawPath
// when the request carries escaped slashes, so only then is the value still
// encoded.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return strings.TrimSpace(raw)
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(raw)
}

func chartPath(prefix, field, category string) string {
	return prefix + "/" + url.PathEscape(field) + "/" + url.PathEscape(category)
}
