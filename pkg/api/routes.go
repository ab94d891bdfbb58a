package api

import (
	"net/http"

	"github.com/chicogong/ffgraph/pkg/auth"
)

// Handler returns the routed API with logging, recovery and CORS applied.
// /health stays public; /api/v1 goes through authentication when the
// server was given an auth middleware. Saving and deleting graphs needs
// the editor role.
func (s *Server) Handler(origins ...string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HandleHealth)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/filters", s.HandleListFilters)
	api.HandleFunc("POST /api/v1/compile", s.HandleCompile)
	api.HandleFunc("POST /api/v1/probe/parse", s.HandleProbeParse)
	api.HandleFunc("GET /api/v1/graphs", s.HandleListGraphs)
	api.HandleFunc("GET /api/v1/graphs/{id}", s.HandleGetGraph)
	api.HandleFunc("POST /api/v1/graphs/{id}/compile", s.HandleCompileGraph)
	api.Handle("POST /api/v1/graphs", s.editor(http.HandlerFunc(s.HandleCreateGraph)))
	api.Handle("DELETE /api/v1/graphs/{id}", s.editor(http.HandlerFunc(s.HandleDeleteGraph)))

	var v1 http.Handler = api
	if s.auth != nil {
		v1 = s.auth.Handler(api)
	}
	mux.Handle("/api/v1/", v1)

	return Chain(mux,
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		CORSMiddleware(origins...),
	)
}

func (s *Server) editor(h http.Handler) http.Handler {
	if s.auth == nil {
		return h
	}
	return auth.RequireRole(auth.RoleEditor)(h)
}
