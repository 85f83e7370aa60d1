package routegroups

import "net/http"

// Guards wraps handlers with per-route checks owned by the server.
type Guards struct {
	LimitBody func(http.HandlerFunc) http.HandlerFunc
}

func (g Guards) Form(next http.HandlerFunc) http.HandlerFunc {
	if g.LimitBody == nil {
		return next
	}
	return g.LimitBody(next)
}
