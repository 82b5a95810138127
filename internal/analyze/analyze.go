// Package analyze builds code models from source files: it picks a grammar,
// extracts facts and ingests them into a codemodel.Code. Batches of files
// are analysed concurrently and a Watcher re-analyses files on change.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
)

// ErrUnsupportedLanguage is returned for files no enabled grammar handles.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Result is the model built from one file.
type Result struct {
	Path     string
	Language extract.Language
	LOC      int
	Code     *codemodel.Code
	Report   codemodel.Report
}

// Analyzer turns files into code models. It is safe for concurrent use
// when its Parser is.
type Analyzer struct {
	parser    extract.Parser
	logger    *zap.Logger
	languages []extract.Language
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger handed to every built model.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithLanguages restricts analysis to langs. An empty list keeps every
// language the parser supports.
func WithLanguages(langs ...extract.Language) Option {
	return func(a *Analyzer) {
		a.languages = langs
	}
}

// New creates an Analyzer over p.
func New(p extract.Parser, opts ...Option) *Analyzer {
	a := &Analyzer{
		parser: p,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if len(a.languages) == 0 {
		a.languages = p.SupportedLanguages()
	}
	return a
}

// Supports reports whether path has an enabled language.
func (a *Analyzer) Supports(path string) bool {
	lang, ok := extract.LanguageForPath(path)
	return ok && slices.Contains(a.languages, lang)
}

// AnalyzeFile reads path and builds its model. Unresolved references and
// skipped facts do not fail the analysis; they are in Result.Report and on
// the model's Diagnostics.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	lang, ok := extract.LanguageForPath(path)
	if !ok || !slices.Contains(a.languages, lang) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return a.AnalyzeSource(ctx, path, src, lang)
}

// AnalyzeSource builds the model of src as if read from path.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, src []byte, lang extract.Language) (*Result, error) {
	parsed, err := a.parser.Parse(ctx, path, src, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	log := a.logger.With(zap.String("file", path))
	code := codemodel.New(path, codemodel.WithLogger(log))
	rep := code.Ingest(parsed.Seq())

	log.Debug("file analyzed",
		zap.String("language", string(lang)),
		zap.Int("facts", len(parsed.Facts)),
		zap.Int("applied", rep.Applied),
		zap.Int("skipped", rep.Skipped),
	)

	return &Result{
		Path:     path,
		Language: lang,
		LOC:      parsed.LOC,
		Code:     code,
		Report:   rep,
	}, nil
}
