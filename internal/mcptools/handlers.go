package mcptools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/graph"
)

// ErrNotAnalyzed is returned by query tools for a file that analyze_file has
// not processed yet.
var ErrNotAnalyzed = errors.New("file not analysed")

// ModelService holds the analysed models used by MCP tool handlers, keyed
// by absolute file path.
type ModelService struct {
	analyzer *analyze.Analyzer
	store    graph.Store
	logger   *zap.Logger

	mu    sync.RWMutex
	codes map[string]*analyze.Result
}

// ServiceOption configures a ModelService.
type ServiceOption func(*ModelService)

// WithStore persists every model analysed through analyze_file.
func WithStore(store graph.Store) ServiceOption {
	return func(s *ModelService) { s.store = store }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *ModelService) { s.logger = l }
}

// NewModelService creates a ModelService analysing files with a.
func NewModelService(a *analyze.Analyzer, opts ...ServiceOption) *ModelService {
	s := &ModelService{
		analyzer: a,
		logger:   zap.NewNop(),
		codes:    make(map[string]*analyze.Result),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func registryKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Put registers res, replacing any model of the same file.
func (s *ModelService) Put(res *analyze.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[registryKey(res.Path)] = res
}

// Remove forgets the model of path.
func (s *ModelService) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, registryKey(path))
}

// Code returns the registered model of path.
func (s *ModelService) Code(path string) (*codemodel.Code, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.codes[registryKey(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w (call analyze_file first)", path, ErrNotAnalyzed)
	}
	return res.Code, nil
}

// AnalyzeFile analyses one file, registers its model and, when a store is
// configured, persists its snapshot. A file persisted before keeps its ID.
func (s *ModelService) AnalyzeFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeFileInput,
) (*mcp.CallToolResult, AnalyzeFileOutput, error) {
	if input.Path == "" {
		return nil, AnalyzeFileOutput{}, fmt.Errorf("path is required")
	}

	res, err := s.analyzer.AnalyzeFile(ctx, input.Path)
	if err != nil {
		return nil, AnalyzeFileOutput{}, fmt.Errorf("analyze: %w", err)
	}
	s.Put(res)

	out := AnalyzeFileOutput{
		Path:     res.Path,
		ID:       res.Code.ID(),
		Language: string(res.Language),
		LOC:      res.LOC,
		Stats:    res.Code.Stats(),
	}
	for _, d := range res.Code.Diagnostics() {
		out.Diagnostics = append(out.Diagnostics, d.Error())
	}
	for _, r := range res.Code.Unresolved() {
		out.Unresolved = append(out.Unresolved, string(r))
	}

	if s.store != nil {
		id, err := graph.SaveByPath(ctx, s.store, res.Code.Snapshot())
		if err != nil {
			s.logger.Warn("persist snapshot failed", zap.String("file", res.Path), zap.Error(err))
		} else {
			out.ID = id
			out.Persisted = true
		}
	}
	return nil, out, nil
}

// ListInformations lists the informations of an analysed file.
func (s *ModelService) ListInformations(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListInformationsInput,
) (*mcp.CallToolResult, ListInformationsOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, ListInformationsOutput{}, err
	}
	filter, err := codemodel.ParseInfoFilter(input.Filter)
	if err != nil {
		return nil, ListInformationsOutput{}, err
	}
	order, err := codemodel.ParseSortOrder(input.Sort)
	if err != nil {
		return nil, ListInformationsOutput{}, err
	}

	infos := code.Informations(filter, order)
	out := ListInformationsOutput{
		Informations: make([]codemodel.InformationNode, 0, len(infos)),
		Total:        len(infos),
	}
	for _, info := range infos {
		out.Informations = append(out.Informations, codemodel.NewInformationNode(info))
	}
	return nil, out, nil
}

// ListTreatments lists the treatments of an analysed file with their
// composition, sequencing, data and results.
func (s *ModelService) ListTreatments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListTreatmentsInput,
) (*mcp.CallToolResult, ListTreatmentsOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, ListTreatmentsOutput{}, err
	}
	filter, err := codemodel.ParseTreatmentFilter(input.Filter)
	if err != nil {
		return nil, ListTreatmentsOutput{}, err
	}
	order, err := codemodel.ParseSortOrder(input.Sort)
	if err != nil {
		return nil, ListTreatmentsOutput{}, err
	}

	treatments := code.Treatments(filter, order)
	out := ListTreatmentsOutput{
		Treatments: make([]TreatmentView, 0, len(treatments)),
		Total:      len(treatments),
	}
	for _, t := range treatments {
		view := TreatmentView{
			ID:            t.ID,
			Name:          t.Name,
			Role:          string(t.Role),
			Composition:   string(t.Composition()),
			SubTreatments: treatmentNames(code.SubTreatments(t.ID)),
			ExecutesAfter: treatmentNames(code.ExecutesAfter(t.ID)),
			Data:          infoNames(code.Data(t.ID)),
			Results:       infoNames(code.Results(t.ID)),
		}
		if cm, ok := code.TreatmentComment(t.ID); ok {
			view.Comment = cm.Text
		}
		out.Treatments = append(out.Treatments, view)
	}
	return nil, out, nil
}

// ListComments lists the comments of an analysed file.
func (s *ModelService) ListComments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListCommentsInput,
) (*mcp.CallToolResult, ListCommentsOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, ListCommentsOutput{}, err
	}
	filter, err := codemodel.ParseCommentFilter(input.Filter)
	if err != nil {
		return nil, ListCommentsOutput{}, err
	}

	comments := code.Comments(filter)
	out := ListCommentsOutput{
		Comments: make([]codemodel.CommentNode, 0, len(comments)),
		Total:    len(comments),
	}
	for _, cm := range comments {
		out.Comments = append(out.Comments, codemodel.NewCommentNode(cm))
	}
	return nil, out, nil
}

// ListLibraries lists the libraries of an analysed file.
func (s *ModelService) ListLibraries(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListLibrariesInput,
) (*mcp.CallToolResult, ListLibrariesOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, ListLibrariesOutput{}, err
	}
	order, err := codemodel.ParseSortOrder(input.Sort)
	if err != nil {
		return nil, ListLibrariesOutput{}, err
	}
	libs := code.Libraries(order)
	return nil, ListLibrariesOutput{Libraries: libs, Total: len(libs)}, nil
}

// NestedStructures returns the structures matching inner that are nested,
// at any depth, inside a structure matching outer.
func (s *ModelService) NestedStructures(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input NestedStructuresInput,
) (*mcp.CallToolResult, NestedStructuresOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, NestedStructuresOutput{}, err
	}
	outer, err := ParsePredicate(input.Outer)
	if err != nil {
		return nil, NestedStructuresOutput{}, fmt.Errorf("outer: %w", err)
	}
	inner, err := ParsePredicate(input.Inner)
	if err != nil {
		return nil, NestedStructuresOutput{}, fmt.Errorf("inner: %w", err)
	}
	found := code.NestedWithin(outer, inner)
	return nil, NestedStructuresOutput{Structures: found, Total: len(found)}, nil
}

// ModelStats returns the per-category counts of an analysed file.
func (s *ModelService) ModelStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ModelStatsInput,
) (*mcp.CallToolResult, ModelStatsOutput, error) {
	code, err := s.Code(input.Path)
	if err != nil {
		return nil, ModelStatsOutput{}, err
	}
	return nil, ModelStatsOutput{Stats: code.Stats()}, nil
}

var shapeKinds = map[codemodel.ShapeKind]bool{
	codemodel.ShapeIf:                  true,
	codemodel.ShapeIfElse:              true,
	codemodel.ShapeElseIfChain:         true,
	codemodel.ShapeElseIfChainWithElse: true,
	codemodel.ShapeSwitch:              true,
	codemodel.ShapeKnownCount:          true,
	codemodel.ShapeUnknownCount:        true,
}

// ParsePredicate maps "any" (or ""), "conditional", "iterative" or a shape
// kind to a structure predicate.
func ParsePredicate(s string) (codemodel.StructurePredicate, error) {
	switch s {
	case "", "any":
		return func(codemodel.ControlStructure) bool { return true }, nil
	case "conditional":
		return codemodel.ControlStructure.IsConditional, nil
	case "iterative":
		return codemodel.ControlStructure.IsIterative, nil
	}
	if kind := codemodel.ShapeKind(s); shapeKinds[kind] {
		return codemodel.OfKind(kind), nil
	}
	return nil, fmt.Errorf("unknown structure selector %q", s)
}

func treatmentNames(ts []codemodel.Treatment) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func infoNames(infos []codemodel.Information) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Name)
	}
	return out
}
