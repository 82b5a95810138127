package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// pyGrammar maps tree-sitter-python nodes. The first assignment to a name
// in a scope declares it, and string literals opening a module or function
// body are docstrings.
type pyGrammar struct{}

func (pyGrammar) classify(n *tree_sitter.Node) unit {
	switch n.Kind() {
	case "comment":
		return unitComment
	case "import_statement", "import_from_statement":
		return unitImport
	case "function_definition", "lambda":
		return unitFunction
	case "global_statement", "nonlocal_statement":
		return unitDeclaration
	case "expression_statement":
		if n.NamedChildCount() == 1 {
			switch n.NamedChild(0).Kind() {
			case "assignment", "augmented_assignment":
				return unitAssignment
			}
		}
	case "assignment", "augmented_assignment":
		return unitAssignment
	case "if_statement", "match_statement":
		return unitConditional
	case "for_statement", "while_statement":
		return unitLoop
	case "call":
		return unitCall
	case "integer", "float":
		return unitNumber
	case "string", "concatenated_string", "true", "false", "none":
		return unitLiteral
	case "identifier":
		return unitIdentifier
	case "attribute", "keyword_argument":
		return unitMember
	case "parameters", "lambda_parameters", "type":
		return unitOpaque
	}
	return unitNone
}

func (pyGrammar) imports(n *tree_sitter.Node, src []byte) []string {
	if n.Kind() == "import_from_statement" {
		if m := text(n.ChildByFieldName("module_name"), src); m != "" {
			return []string{m}
		}
		return nil
	}
	var out []string
	for _, c := range namedChildren(n, "dotted_name", "aliased_import") {
		if c.Kind() == "aliased_import" {
			c = c.ChildByFieldName("name")
		}
		if name := text(c, src); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (pyGrammar) function(n *tree_sitter.Node, src []byte) function {
	fn := function{body: n.ChildByFieldName("body")}
	if n.Kind() == "function_definition" {
		fn.name = text(n.ChildByFieldName("name"), src)
	}
	if p := n.ChildByFieldName("parameters"); p != nil {
		fn.params = append(fn.params, p)
	}
	return fn
}

// declarations handles global and nonlocal statements, which bind names to
// the enclosing scopes instead of declaring new ones.
func (pyGrammar) declarations(n *tree_sitter.Node, src []byte) []declaration {
	var out []declaration
	for _, name := range identifiers(n, src) {
		out = append(out, declaration{name: name, outer: true})
	}
	return out
}

func (pyGrammar) assignment(n *tree_sitter.Node, src []byte) assignment {
	if n.Kind() == "expression_statement" {
		n = n.NamedChild(0)
	}
	a := assignment{
		op:       "=",
		typeName: text(n.ChildByFieldName("type"), src),
		value:    n.ChildByFieldName("right"),
		declare:  true,
	}
	if n.Kind() == "augmented_assignment" {
		a.op = text(n.ChildByFieldName("operator"), src)
	}
	left := n.ChildByFieldName("left")
	if left == nil {
		return a
	}
	switch left.Kind() {
	case "pattern_list", "tuple_pattern", "list_pattern":
		a.targets = identifiers(left, src)
	default:
		if name := pyTarget(left, src); name != "" {
			a.targets = []string{name}
		}
	}
	return a
}

func pyTarget(e *tree_sitter.Node, src []byte) string {
	for e != nil {
		switch e.Kind() {
		case "identifier":
			return e.Utf8Text(src)
		case "attribute":
			e = e.ChildByFieldName("object")
		case "subscript":
			e = e.ChildByFieldName("value")
		default:
			return ""
		}
	}
	return ""
}

func (pyGrammar) increment(*tree_sitter.Node, []byte) string { return "" }

func (pyGrammar) conditional(n *tree_sitter.Node) (codemodel.ControlShape, []*tree_sitter.Node) {
	if n.Kind() == "match_statement" {
		return codemodel.Switch(), nil
	}
	elifs := len(namedChildren(n, "elif_clause"))
	hasElse := len(namedChildren(n, "else_clause")) > 0
	return chainShape(1+elifs, hasElse), nil
}

func (pyGrammar) loop(n *tree_sitter.Node, src []byte) loop {
	body := n.ChildByFieldName("body")
	alt := n.ChildByFieldName("alternative")
	if n.Kind() == "for_statement" {
		return loop{
			shape:   codemodel.KnownCount(),
			indexes: identifiers(n.ChildByFieldName("left"), src),
			walk:    []*tree_sitter.Node{n.ChildByFieldName("right"), body, alt},
		}
	}
	cond := n.ChildByFieldName("condition")
	if cond != nil && cond.Kind() == "true" {
		return loop{shape: codemodel.UnknownCount(codemodel.ConditionMiddle), walk: []*tree_sitter.Node{body, alt}}
	}
	return loop{shape: codemodel.UnknownCount(codemodel.ConditionStart), walk: []*tree_sitter.Node{cond, body, alt}}
}

func (pyGrammar) callee(n *tree_sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(src)
	case "attribute":
		return text(fn.ChildByFieldName("attribute"), src)
	}
	return ""
}

var pyComposites = map[string]string{
	"list":                     "list",
	"list_comprehension":       "list",
	"dictionary":               "dict",
	"dictionary_comprehension": "dict",
	"set":                      "set",
	"set_comprehension":        "set",
	"tuple":                    "tuple",
}

func (pyGrammar) composite(n *tree_sitter.Node, _ []byte) (string, bool) {
	t, ok := pyComposites[n.Kind()]
	return t, ok
}

func (pyGrammar) isBreak(kind string) bool { return kind == "break_statement" }

func (pyGrammar) docstring(block *tree_sitter.Node, src []byte) (string, bool) {
	if block == nil || block.NamedChildCount() == 0 {
		return "", false
	}
	first := block.NamedChild(0)
	if first.Kind() != "expression_statement" || first.NamedChildCount() != 1 {
		return "", false
	}
	s := first.NamedChild(0)
	if s.Kind() != "string" {
		return "", false
	}
	doc := strings.TrimLeft(s.Utf8Text(src), "rRuUbBfF")
	doc = strings.TrimSpace(strings.Trim(doc, "\"'"))
	return doc, doc != ""
}
