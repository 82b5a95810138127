package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// tsGrammar maps tree-sitter-typescript nodes.
type tsGrammar struct{}

func (tsGrammar) classify(n *tree_sitter.Node) unit {
	switch n.Kind() {
	case "comment":
		return unitComment
	case "import_statement":
		return unitImport
	case "function_declaration", "generator_function_declaration", "method_definition",
		"arrow_function", "function_expression", "function":
		return unitFunction
	case "lexical_declaration", "variable_declaration":
		return unitDeclaration
	case "assignment_expression", "augmented_assignment_expression":
		return unitAssignment
	case "update_expression":
		return unitIncrement
	case "if_statement", "switch_statement":
		return unitConditional
	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		return unitLoop
	case "call_expression", "new_expression":
		return unitCall
	case "number":
		return unitNumber
	case "string", "template_string", "true", "false", "null", "undefined", "regex":
		return unitLiteral
	case "identifier":
		return unitIdentifier
	case "member_expression":
		return unitMember
	case "type_annotation", "type_arguments", "type_parameters", "formal_parameters",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		return unitOpaque
	}
	return unitNone
}

func (tsGrammar) imports(n *tree_sitter.Node, src []byte) []string {
	source := strings.Trim(text(n.ChildByFieldName("source"), src), "\"'`")
	if source == "" {
		return nil
	}
	return []string{source}
}

func (tsGrammar) function(n *tree_sitter.Node, src []byte) function {
	fn := function{body: n.ChildByFieldName("body")}
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration", "method_definition":
		fn.name = text(n.ChildByFieldName("name"), src)
	}
	for _, field := range []string{"parameters", "parameter"} {
		if p := n.ChildByFieldName(field); p != nil {
			fn.params = append(fn.params, p)
		}
	}
	return fn
}

func (tsGrammar) declarations(n *tree_sitter.Node, src []byte) []declaration {
	constant := text(n.ChildByFieldName("kind"), src) == "const"
	var out []declaration
	for _, d := range namedChildren(n, "variable_declarator") {
		name := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		typeName := strings.TrimSpace(strings.TrimPrefix(text(d.ChildByFieldName("type"), src), ":"))
		if name == nil || name.Kind() != "identifier" {
			for _, id := range identifiers(name, src) {
				out = append(out, declaration{name: id})
			}
			continue
		}
		out = append(out, declaration{
			name:     name.Utf8Text(src),
			typeName: typeName,
			// const bindings of non-literal values are read-only variables,
			// not named constants.
			constant: constant && value != nil && tsScalar(value.Kind()),
			value:    value,
		})
	}
	return out
}

func tsScalar(kind string) bool {
	switch kind {
	case "number", "string", "template_string", "true", "false":
		return true
	}
	return false
}

func (tsGrammar) assignment(n *tree_sitter.Node, src []byte) assignment {
	a := assignment{op: "=", value: n.ChildByFieldName("right")}
	if n.Kind() == "augmented_assignment_expression" {
		a.op = text(n.ChildByFieldName("operator"), src)
	}
	if name := tsTarget(n.ChildByFieldName("left"), src); name != "" {
		a.targets = []string{name}
	}
	return a
}

func tsTarget(e *tree_sitter.Node, src []byte) string {
	for e != nil {
		switch e.Kind() {
		case "identifier":
			return e.Utf8Text(src)
		case "member_expression", "subscript_expression":
			e = e.ChildByFieldName("object")
		case "parenthesized_expression", "non_null_expression":
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

func (tsGrammar) increment(n *tree_sitter.Node, src []byte) string {
	return tsTarget(n.ChildByFieldName("argument"), src)
}

func (tsGrammar) conditional(n *tree_sitter.Node) (codemodel.ControlShape, []*tree_sitter.Node) {
	if n.Kind() == "switch_statement" {
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
		if next.Kind() != "if_statement" {
			hasElse = true
			break
		}
		chain = append(chain, next)
		branches++
		cur = next
	}
	return chainShape(branches, hasElse), chain
}

func (tsGrammar) loop(n *tree_sitter.Node, src []byte) loop {
	body := n.ChildByFieldName("body")
	cond := n.ChildByFieldName("condition")
	switch n.Kind() {
	case "for_statement":
		init := n.ChildByFieldName("initializer")
		l := loop{
			shape: codemodel.KnownCount(),
			walk:  []*tree_sitter.Node{init, cond, n.ChildByFieldName("increment"), body},
		}
		if init != nil {
			l.declares = init.Kind() == "lexical_declaration" || init.Kind() == "variable_declaration"
			for _, d := range namedChildren(init, "variable_declarator") {
				l.indexes = append(l.indexes, identifiers(d.ChildByFieldName("name"), src)...)
			}
		}
		return l
	case "for_in_statement":
		return loop{
			shape:   codemodel.KnownCount(),
			indexes: identifiers(n.ChildByFieldName("left"), src),
			walk:    []*tree_sitter.Node{n.ChildByFieldName("right"), body},
		}
	case "do_statement":
		return loop{shape: codemodel.UnknownCount(codemodel.ConditionEnd), walk: []*tree_sitter.Node{body, cond}}
	}
	if strings.Trim(text(cond, src), "() ") == "true" {
		return loop{shape: codemodel.UnknownCount(codemodel.ConditionMiddle), walk: []*tree_sitter.Node{body}}
	}
	return loop{shape: codemodel.UnknownCount(codemodel.ConditionStart), walk: []*tree_sitter.Node{cond, body}}
}

func (tsGrammar) callee(n *tree_sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if n.Kind() == "new_expression" {
		fn = n.ChildByFieldName("constructor")
	}
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(src)
	case "member_expression":
		return text(fn.ChildByFieldName("property"), src)
	}
	return ""
}

func (tsGrammar) composite(n *tree_sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "array":
		return "array", true
	case "object":
		return "object", true
	case "new_expression":
		return text(n.ChildByFieldName("constructor"), src), true
	}
	return "", false
}

func (tsGrammar) isBreak(kind string) bool { return kind == "break_statement" }
