package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// rsGrammar maps tree-sitter-rust nodes.
type rsGrammar struct{}

func (rsGrammar) classify(n *tree_sitter.Node) unit {
	switch n.Kind() {
	case "line_comment", "block_comment":
		return unitComment
	case "use_declaration", "extern_crate_declaration":
		return unitImport
	case "function_item", "closure_expression":
		return unitFunction
	case "const_item", "static_item", "let_declaration":
		return unitDeclaration
	case "assignment_expression", "compound_assignment_expr":
		return unitAssignment
	case "if_expression", "match_expression":
		return unitConditional
	case "for_expression", "while_expression", "loop_expression":
		return unitLoop
	case "call_expression":
		return unitCall
	case "integer_literal", "float_literal":
		return unitNumber
	case "string_literal", "raw_string_literal", "char_literal", "boolean_literal":
		return unitLiteral
	case "identifier":
		return unitIdentifier
	case "field_expression":
		return unitMember
	case "struct_item", "enum_item", "type_item", "attribute_item", "inner_attribute_item",
		"parameters", "closure_parameters", "scoped_identifier", "type_arguments":
		return unitOpaque
	}
	return unitNone
}

func (rsGrammar) imports(n *tree_sitter.Node, src []byte) []string {
	field := "argument"
	if n.Kind() == "extern_crate_declaration" {
		field = "name"
	}
	if name := text(n.ChildByFieldName(field), src); name != "" {
		return []string{name}
	}
	return nil
}

func (rsGrammar) function(n *tree_sitter.Node, src []byte) function {
	fn := function{body: n.ChildByFieldName("body")}
	if n.Kind() == "function_item" {
		fn.name = text(n.ChildByFieldName("name"), src)
	}
	if p := n.ChildByFieldName("parameters"); p != nil {
		fn.params = append(fn.params, p)
	}
	return fn
}

func (rsGrammar) declarations(n *tree_sitter.Node, src []byte) []declaration {
	typeName := text(n.ChildByFieldName("type"), src)
	value := n.ChildByFieldName("value")

	if n.Kind() != "let_declaration" {
		constant := n.Kind() == "const_item" || len(namedChildren(n, "mutable_specifier")) == 0
		return []declaration{{
			name:     text(n.ChildByFieldName("name"), src),
			typeName: typeName,
			constant: constant,
			value:    value,
		}}
	}

	pattern := n.ChildByFieldName("pattern")
	if pattern != nil && pattern.Kind() == "identifier" {
		return []declaration{{name: pattern.Utf8Text(src), typeName: typeName, value: value}}
	}
	var out []declaration
	for _, name := range identifiers(pattern, src) {
		out = append(out, declaration{name: name})
	}
	if len(out) > 0 && value != nil {
		// Destructured values are walked once, through the first name.
		out[0].value = value
	}
	return out
}

func (rsGrammar) assignment(n *tree_sitter.Node, src []byte) assignment {
	a := assignment{op: "=", value: n.ChildByFieldName("right")}
	if n.Kind() == "compound_assignment_expr" {
		a.op = text(n.ChildByFieldName("operator"), src)
	}
	if name := rsTarget(n.ChildByFieldName("left"), src); name != "" {
		a.targets = []string{name}
	}
	return a
}

func rsTarget(e *tree_sitter.Node, src []byte) string {
	for e != nil {
		switch e.Kind() {
		case "identifier":
			return e.Utf8Text(src)
		case "field_expression":
			e = e.ChildByFieldName("value")
		case "index_expression", "unary_expression", "parenthesized_expression":
			if e.NamedChildCount() == 0 {
				return ""
			}
			e = e.NamedChild(0)
		default:
			return ""
		}
	}
	return ""
}

func (rsGrammar) increment(*tree_sitter.Node, []byte) string { return "" }

func (rsGrammar) conditional(n *tree_sitter.Node) (codemodel.ControlShape, []*tree_sitter.Node) {
	if n.Kind() == "match_expression" {
		return codemodel.Switch(), nil
	}
	var chain []*tree_sitter.Node
	branches, hasElse := 1, false
	for cur := n; ; {
		alt := cur.ChildByFieldName("alternative")
		if alt == nil || alt.NamedChildCount() == 0 {
			break
		}
		next := alt.NamedChild(0)
		if next.Kind() != "if_expression" {
			hasElse = true
			break
		}
		chain = append(chain, next)
		branches++
		cur = next
	}
	return chainShape(branches, hasElse), chain
}

func (rsGrammar) loop(n *tree_sitter.Node, src []byte) loop {
	body := n.ChildByFieldName("body")
	switch n.Kind() {
	case "for_expression":
		return loop{
			shape:   codemodel.KnownCount(),
			indexes: identifiers(n.ChildByFieldName("pattern"), src),
			walk:    []*tree_sitter.Node{n.ChildByFieldName("value"), body},
		}
	case "while_expression":
		return loop{
			shape: codemodel.UnknownCount(codemodel.ConditionStart),
			walk:  []*tree_sitter.Node{n.ChildByFieldName("condition"), body},
		}
	}
	return loop{shape: codemodel.UnknownCount(codemodel.ConditionMiddle), walk: []*tree_sitter.Node{body}}
}

func (rsGrammar) callee(n *tree_sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(src)
	case "field_expression":
		return text(fn.ChildByFieldName("field"), src)
	case "scoped_identifier":
		return text(fn.ChildByFieldName("name"), src)
	}
	return ""
}

func (rsGrammar) composite(n *tree_sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "array_expression":
		return "array", true
	case "tuple_expression":
		return "tuple", true
	case "struct_expression":
		return text(n.ChildByFieldName("name"), src), true
	case "macro_invocation":
		if text(n.ChildByFieldName("macro"), src) == "vec" {
			return "Vec", true
		}
	}
	return "", false
}

func (rsGrammar) isBreak(kind string) bool { return kind == "break_expression" }
