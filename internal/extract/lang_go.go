package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// goGrammar maps tree-sitter-go nodes.
type goGrammar struct{}

func (goGrammar) classify(n *tree_sitter.Node) unit {
	switch n.Kind() {
	case "comment":
		return unitComment
	case "import_spec":
		return unitImport
	case "function_declaration", "method_declaration", "func_literal":
		return unitFunction
	case "const_declaration", "var_declaration", "short_var_declaration":
		return unitDeclaration
	case "assignment_statement":
		return unitAssignment
	case "inc_statement", "dec_statement":
		return unitIncrement
	case "if_statement", "expression_switch_statement", "type_switch_statement", "select_statement":
		return unitConditional
	case "for_statement":
		return unitLoop
	case "call_expression":
		return unitCall
	case "int_literal", "float_literal", "imaginary_literal":
		return unitNumber
	case "interpreted_string_literal", "raw_string_literal", "rune_literal", "true", "false", "nil", "iota":
		return unitLiteral
	case "identifier":
		return unitIdentifier
	case "package_clause", "type_declaration", "parameter_list":
		return unitOpaque
	}
	return unitNone
}

func (goGrammar) imports(n *tree_sitter.Node, src []byte) []string {
	path := strings.Trim(text(n.ChildByFieldName("path"), src), "\"`")
	if path == "" {
		return nil
	}
	return []string{path}
}

func (goGrammar) function(n *tree_sitter.Node, src []byte) function {
	fn := function{
		name: text(n.ChildByFieldName("name"), src),
		body: n.ChildByFieldName("body"),
	}
	for _, field := range []string{"receiver", "parameters"} {
		if p := n.ChildByFieldName(field); p != nil {
			fn.params = append(fn.params, p)
		}
	}
	return fn
}

func (goGrammar) declarations(n *tree_sitter.Node, src []byte) []declaration {
	if n.Kind() == "short_var_declaration" {
		return pair(n.ChildByFieldName("left"), n.ChildByFieldName("right"), src)
	}

	constant := n.Kind() == "const_declaration"
	var specs []*tree_sitter.Node
	for _, c := range namedChildren(n, "const_spec", "var_spec", "var_spec_list") {
		if c.Kind() == "var_spec_list" {
			specs = append(specs, namedChildren(c, "var_spec")...)
			continue
		}
		specs = append(specs, c)
	}

	var out []declaration
	for _, spec := range specs {
		typeName := text(spec.ChildByFieldName("type"), src)
		cursor := spec.Walk()
		var names []string
		for _, id := range spec.ChildrenByFieldName("name", cursor) {
			names = append(names, id.Utf8Text(src))
		}
		cursor.Close()
		values := exprs(spec.ChildByFieldName("value"))
		for i, name := range names {
			d := declaration{name: name, typeName: typeName, constant: constant}
			if i < len(values) {
				d.value = values[i]
			}
			out = append(out, d)
		}
	}
	return out
}

// pair matches the identifiers of an expression_list with its values.
func pair(left, right *tree_sitter.Node, src []byte) []declaration {
	values := exprs(right)
	var out []declaration
	for i, id := range exprs(left) {
		if id.Kind() != "identifier" {
			continue
		}
		d := declaration{name: id.Utf8Text(src)}
		if i < len(values) {
			d.value = values[i]
		}
		out = append(out, d)
	}
	return out
}

// exprs unwraps an expression_list into its expressions.
func exprs(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() != "expression_list" {
		return []*tree_sitter.Node{n}
	}
	return named(n)
}

func (goGrammar) assignment(n *tree_sitter.Node, src []byte) assignment {
	a := assignment{op: text(n.ChildByFieldName("operator"), src)}
	for _, e := range exprs(n.ChildByFieldName("left")) {
		if name := goTarget(e, src); name != "" {
			a.targets = append(a.targets, name)
		}
	}
	if values := exprs(n.ChildByFieldName("right")); len(values) == 1 {
		a.value = values[0]
	} else {
		a.value = n.ChildByFieldName("right")
	}
	return a
}

// goTarget names the variable written by an assignment operand.
func goTarget(e *tree_sitter.Node, src []byte) string {
	for e != nil {
		switch e.Kind() {
		case "identifier":
			return e.Utf8Text(src)
		case "index_expression", "selector_expression", "parenthesized_expression":
			e = e.ChildByFieldName("operand")
			if e == nil {
				return ""
			}
		default:
			return ""
		}
	}
	return ""
}

func (goGrammar) increment(n *tree_sitter.Node, src []byte) string {
	if n.NamedChildCount() == 0 {
		return ""
	}
	return goTarget(n.NamedChild(0), src)
}

func (goGrammar) conditional(n *tree_sitter.Node) (codemodel.ControlShape, []*tree_sitter.Node) {
	if n.Kind() != "if_statement" {
		return codemodel.Switch(), nil
	}
	var chain []*tree_sitter.Node
	branches, hasElse := 1, false
	for cur := n; ; {
		alt := cur.ChildByFieldName("alternative")
		if alt == nil {
			break
		}
		if alt.Kind() != "if_statement" {
			hasElse = true
			break
		}
		chain = append(chain, alt)
		branches++
		cur = alt
	}
	return chainShape(branches, hasElse), chain
}

func (goGrammar) loop(n *tree_sitter.Node, src []byte) loop {
	body := n.ChildByFieldName("body")
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		switch c.Kind() {
		case "block", "comment":
			continue
		case "for_clause":
			l := loop{shape: codemodel.KnownCount(), declares: true, walk: []*tree_sitter.Node{c, body}}
			if init := c.ChildByFieldName("initializer"); init != nil && init.Kind() == "short_var_declaration" {
				l.indexes = identifiers(init.ChildByFieldName("left"), src)
			}
			return l
		case "range_clause":
			return loop{
				shape:   codemodel.KnownCount(),
				indexes: identifiers(c.ChildByFieldName("left"), src),
				walk:    []*tree_sitter.Node{c.ChildByFieldName("right"), body},
			}
		default:
			return loop{shape: codemodel.UnknownCount(codemodel.ConditionStart), walk: []*tree_sitter.Node{c, body}}
		}
	}
	return loop{shape: codemodel.UnknownCount(codemodel.ConditionMiddle), walk: []*tree_sitter.Node{body}}
}

func (goGrammar) callee(n *tree_sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(src)
	case "selector_expression":
		return text(fn.ChildByFieldName("field"), src)
	}
	return ""
}

func (goGrammar) composite(n *tree_sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "composite_literal":
		return text(n.ChildByFieldName("type"), src), true
	case "call_expression":
		if text(n.ChildByFieldName("function"), src) != "make" {
			return "", false
		}
		if args := n.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
			return args.NamedChild(0).Utf8Text(src), true
		}
	}
	return "", false
}

func (goGrammar) isBreak(kind string) bool { return kind == "break_statement" }
