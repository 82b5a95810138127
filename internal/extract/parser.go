// Package extract turns source files into the facts a codemodel.Code
// ingests. It parses with tree-sitter and walks the syntax tree once per
// file, emitting facts in source order.
package extract

import (
	"context"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// Language identifies a programming language for parsing.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// Languages lists every language with a registered grammar.
var Languages = []Language{LangGo, LangTypeScript, LangPython, LangRust}

var extToLanguage = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".py":  LangPython,
	".rs":  LangRust,
}

// LanguageForPath picks a language from the file extension.
func LanguageForPath(path string) (Language, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// ParseLanguage validates a language name, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	lang := Language(strings.ToLower(s))
	return lang, slices.Contains(Languages, lang)
}

// ParseResult holds the facts extracted from a single file.
type ParseResult struct {
	Path     string           `json:"path"`
	Language Language         `json:"language"`
	LOC      int              `json:"loc"`
	Facts    []codemodel.Fact `json:"-"`
}

// Seq yields the facts once, in source order.
func (r *ParseResult) Seq() iter.Seq[codemodel.Fact] {
	return slices.Values(r.Facts)
}

// Parser extracts facts from source files.
type Parser interface {
	// Parse extracts the facts of a single source file. source is the file
	// content. lang determines which grammar to use.
	Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []Language

	// Close releases parser resources.
	Close() error
}
