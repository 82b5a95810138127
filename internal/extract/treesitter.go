package extract

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TreeSitterParser implements Parser using tree-sitter grammars. A new
// tree-sitter parser is created per Parse call, so one TreeSitterParser may
// serve concurrent Parse calls.
type TreeSitterParser struct {
	languages map[Language]*tree_sitter.Language
	grammars  map[Language]grammar
}

// NewTreeSitterParser creates a TreeSitterParser with Go, TypeScript,
// Python and Rust grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	grammars := map[Language]grammar{
		LangGo:         goGrammar{},
		LangTypeScript: tsGrammar{},
		LangPython:     pyGrammar{},
		LangRust:       rsGrammar{},
	}

	return &TreeSitterParser{
		languages: langs,
		grammars:  grammars,
	}
}

// Parse extracts the facts of a single source file.
func (p *TreeSitterParser) Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	g, ok := p.grammars[lang]
	if !ok {
		return nil, fmt.Errorf("no grammar for language: %s", lang)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	facts := newExtraction(g, source).run(tree.RootNode())

	return &ParseResult{
		Path:     path,
		Language: lang,
		LOC:      countLOC(source),
		Facts:    facts,
	}, nil
}

// SupportedLanguages returns the languages this parser can handle, sorted.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// countLOC counts the lines of source. A trailing newline does not start a
// new line.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
