// Package api serves the graph compiler over HTTP: compiling documents,
// saving graphs and listing the filter catalogue
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chicogong/ffgraph/pkg/auth"
	"github.com/chicogong/ffgraph/pkg/compiler"
	"github.com/chicogong/ffgraph/pkg/compiler/validator"
	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/planner"
	"github.com/chicogong/ffgraph/pkg/prober"
	"github.com/chicogong/ffgraph/pkg/schemas"
	"github.com/chicogong/ffgraph/pkg/storage"
	"github.com/chicogong/ffgraph/pkg/store"
)

// DefaultMaxBodySize bounds request bodies
const DefaultMaxBodySize = storage.MaxDocumentSize

// Server holds the API server dependencies
type Server struct {
	store        store.Store
	registry     *filters.Registry
	planner      *planner.Planner
	validator    *validator.Validator
	compilerOpts []compiler.Option
	plannerOpts  []planner.Option
	auth         *auth.AuthMiddleware
	logger       logrus.FieldLogger
	maxBody      int64
	started      time.Time
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithRegistry serves a filter catalogue other than the global one
func WithRegistry(r *filters.Registry) ServerOption {
	return func(s *Server) {
		s.registry = r
	}
}

// WithValidator replaces the locator validator applied before compiling
func WithValidator(v *validator.Validator) ServerOption {
	return func(s *Server) {
		s.validator = v
	}
}

// WithCompilerOptions adds options to every compile. Script transport is
// always disabled; clients get the filter graph in the response.
func WithCompilerOptions(opts ...compiler.Option) ServerOption {
	return func(s *Server) {
		s.compilerOpts = append(s.compilerOpts, opts...)
	}
}

// WithPlannerOptions configures how job specs are planned
func WithPlannerOptions(opts ...planner.Option) ServerOption {
	return func(s *Server) {
		s.plannerOpts = append(s.plannerOpts, opts...)
	}
}

// WithAuth protects the /api/v1 routes
func WithAuth(m *auth.AuthMiddleware) ServerOption {
	return func(s *Server) {
		s.auth = m
	}
}

// WithLogger sets the request and error logger
func WithLogger(logger logrus.FieldLogger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodySize bounds request bodies
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) {
		s.maxBody = n
	}
}

// NewServer creates a new API server
func NewServer(st store.Store, opts ...ServerOption) *Server {
	s := &Server{
		store:    st,
		registry: filters.GlobalRegistry(),
		logger:   logrus.StandardLogger(),
		maxBody:  DefaultMaxBodySize,
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validator.New()
	}
	s.planner = planner.NewPlanner(append([]planner.Option{planner.WithCatalogue(s.registry)}, s.plannerOpts...)...)
	return s
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CompileResponse is a compiled command
type CompileResponse struct {
	Args         []string `json:"args"`
	Command      string   `json:"command"`
	FilterScript string   `json:"filter_script,omitempty"`
	// Length is the joined command length; above MaxArgLength the caller
	// should pass FilterScript with -filter_complex_script
	Length       int    `json:"length"`
	MaxArgLength int    `json:"max_arg_length"`
	Hash         string `json:"hash"`
}

// CreateGraphRequest is the body of POST /api/v1/graphs. Document is
// either a serialized graph or a JSON job spec.
type CreateGraphRequest struct {
	Name     string            `json:"name"`
	Tags     map[string]string `json:"tags,omitempty"`
	Document json.RawMessage   `json:"document"`
}

// FilterInfo describes one catalogue entry
type FilterInfo struct {
	Name        string                        `json:"name"`
	Category    filters.Category              `json:"category"`
	Description string                        `json:"description,omitempty"`
	Inputs      filters.PortSpec              `json:"inputs"`
	Outputs     filters.PortSpec              `json:"outputs"`
	Dynamic     bool                          `json:"dynamic,omitempty"`
	Parameters  []filters.ParameterDescriptor `json:"parameters,omitempty"`
}

// ProbeResponse is parsed ffprobe output
type ProbeResponse struct {
	*schemas.MediaInfo
	Streams []schemas.MediaType `json:"streams"`
}

// HandleHealth handles GET /health
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"time":    time.Now(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"filters": s.registry.Len(),
	})
}

// HandleListFilters handles GET /api/v1/filters[?category=...]
func (s *Server) HandleListFilters(w http.ResponseWriter, r *http.Request) {
	descs := s.registry.List()
	if c := r.URL.Query().Get("category"); c != "" {
		descs = s.registry.ListByCategory(filters.Category(c))
	}

	infos := make([]FilterInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, FilterInfo{
			Name:        d.Name,
			Category:    d.Category,
			Description: d.Description,
			Inputs:      d.Inputs,
			Outputs:     d.Outputs,
			Dynamic:     d.Resolve != nil,
			Parameters:  d.Parameters,
		})
	}
	s.sendJSON(w, http.StatusOK, infos)
}

// HandleCompile handles POST /api/v1/compile. The body is a serialized
// graph or a job spec in JSON or YAML.
func (s *Server) HandleCompile(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	root, err := s.planner.Load(r.Context(), data)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	resp, err := s.compile(root)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// HandleCreateGraph handles POST /api/v1/graphs
func (s *Server) HandleCreateGraph(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req CreateGraphRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.Document) == 0 {
		s.sendError(w, http.StatusBadRequest, "missing_document", "Graph document is required")
		return
	}

	root, err := s.planner.Load(r.Context(), req.Document)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	if err := s.validator.Check(root); err != nil {
		s.sendFailure(w, err)
		return
	}
	doc, err := graph.Marshal(root)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	rec := &store.Record{
		Name:     req.Name,
		Tags:     req.Tags,
		Document: doc,
		Hash:     root.Hash().Hex(),
		Nodes:    graph.NewDAGContext(root).Len(),
	}
	if err := s.store.Create(r.Context(), rec); err != nil {
		s.sendFailure(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{"graph": rec.ID, "nodes": rec.Nodes}).Info("Graph saved")
	w.Header().Set("Location", "/api/v1/graphs/"+rec.ID)
	s.sendJSON(w, http.StatusCreated, rec)
}

// HandleListGraphs handles GET /api/v1/graphs
func (s *Server) HandleListGraphs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	recs, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	// Documents can be large; listings carry metadata only
	for _, rec := range recs {
		rec.Document = nil
	}
	s.sendJSON(w, http.StatusOK, recs)
}

// HandleGetGraph handles GET /api/v1/graphs/{id}
func (s *Server) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, rec)
}

// HandleDeleteGraph handles DELETE /api/v1/graphs/{id}
func (s *Server) HandleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.sendFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCompileGraph handles POST /api/v1/graphs/{id}/compile and records
// the command on the graph
func (s *Server) HandleCompileGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	root, err := graph.Unmarshal(rec.Document)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	resp, err := s.compile(root)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	if err := s.store.SetCommand(ctx, id, resp.Args); err != nil {
		s.sendFailure(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// HandleProbeParse handles POST /api/v1/probe/parse: the body is ffprobe
// JSON output
func (s *Server) HandleProbeParse(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	info, err := prober.Parse(data)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid_probe_output", err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, ProbeResponse{MediaInfo: info, Streams: info.Streams()})
}

func (s *Server) compile(root graph.Node) (*CompileResponse, error) {
	opts := append([]compiler.Option{compiler.WithChecker(s.validator)}, s.compilerOpts...)
	opts = append(opts,
		compiler.WithScriptMode(compiler.ScriptNever),
		compiler.WithMaxArgLength(math.MaxInt),
	)

	cmd, err := compiler.Compile(root, opts...)
	if err != nil {
		return nil, err
	}

	length := -1
	for _, a := range cmd.Args {
		length += len(a) + 1
	}
	return &CompileResponse{
		Args:         cmd.Args,
		Command:      cmd.String(),
		FilterScript: cmd.FilterScript,
		Length:       length,
		MaxArgLength: compiler.DefaultMaxArgLength,
		Hash:         root.Hash().Hex(),
	}, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		s.sendError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Failed to read body: %v", err))
		return nil, false
	}
	if len(data) == 0 {
		s.sendError(w, http.StatusBadRequest, "empty_body", "Request body is required")
		return nil, false
	}
	return data, true
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	s.sendJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

// sendFailure maps an error from the graph, compiler or store packages to
// a status and error code
func (s *Server) sendFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.sendError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrGraphNotFound):
		return http.StatusNotFound, "graph_not_found"
	case errors.Is(err, store.ErrGraphExists):
		return http.StatusConflict, "graph_exists"
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "invalid_graph_id"
	case errors.Is(err, graph.ErrCyclicGraph):
		return http.StatusUnprocessableEntity, "cyclic_graph"
	case errors.Is(err, graph.ErrUnresolvedFanOut):
		return http.StatusUnprocessableEntity, "unresolved_fan_out"
	case errors.Is(err, graph.ErrAmbiguousPortType):
		return http.StatusUnprocessableEntity, "ambiguous_port_type"
	case errors.Is(err, graph.ErrUnknownNodeKind):
		return http.StatusBadRequest, "unknown_node_kind"
	case errors.Is(err, graph.ErrGraphConstruction):
		return http.StatusBadRequest, "graph_construction"
	case errors.Is(err, compiler.ErrInvalidRoot):
		return http.StatusBadRequest, "invalid_root"
	case errors.Is(err, compiler.ErrArgumentLengthExceeded):
		return http.StatusUnprocessableEntity, "argument_length_exceeded"
	default:
		return http.StatusBadRequest, "invalid_document"
	}
}

func parseListFilter(r *http.Request) (*store.ListFilter, error) {
	q := r.URL.Query()
	filter := &store.ListFilter{
		NamePrefix: q.Get("name"),
		Hash:       q.Get("hash"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		*dst = n
	}

	for key, dst := range map[string]**time.Time{"created_after": &filter.CreatedAfter, "created_before": &filter.CreatedBefore} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%s must be an RFC 3339 time", key)
		}
		*dst = &t
	}
	return filter, nil
}

// Close closes the server and releases resources
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
