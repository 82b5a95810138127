package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// unit is what a syntax node means to the walker.
type unit int

const (
	unitNone unit = iota
	unitImport
	unitFunction
	unitDeclaration
	unitAssignment
	unitIncrement
	unitConditional
	unitLoop
	unitCall
	unitComment
	unitNumber
	unitLiteral
	unitIdentifier
	// unitMember walks only the "object" or "value" field of the node.
	unitMember
	// unitOpaque nodes and their subtrees are ignored.
	unitOpaque
)

// grammar maps one tree-sitter grammar onto walker units. Methods other
// than classify are only called on nodes classify sent to them.
type grammar interface {
	classify(n *tree_sitter.Node) unit
	imports(n *tree_sitter.Node, src []byte) []string
	function(n *tree_sitter.Node, src []byte) function
	declarations(n *tree_sitter.Node, src []byte) []declaration
	assignment(n *tree_sitter.Node, src []byte) assignment
	increment(n *tree_sitter.Node, src []byte) string
	conditional(n *tree_sitter.Node) (codemodel.ControlShape, []*tree_sitter.Node)
	loop(n *tree_sitter.Node, src []byte) loop
	callee(n *tree_sitter.Node, src []byte) string
	composite(n *tree_sitter.Node, src []byte) (typeName string, ok bool)
	isBreak(kind string) bool
}

// docGrammar is implemented by grammars with docstrings: a string literal
// opening a module or function body documents it.
type docGrammar interface {
	docstring(block *tree_sitter.Node, src []byte) (string, bool)
}

type function struct {
	name   string // empty for anonymous functions
	body   *tree_sitter.Node
	params []*tree_sitter.Node
}

type declaration struct {
	name     string
	typeName string
	constant bool
	value    *tree_sitter.Node
	// outer binds name to the information it already names in an
	// enclosing scope.
	outer bool
}

type assignment struct {
	targets  []string
	op       string
	typeName string
	value    *tree_sitter.Node
	// declare is set for languages where the first assignment to a name
	// declares it.
	declare bool
}

type loop struct {
	shape   codemodel.ControlShape
	indexes []string
	// declares is set when a declaration inside the loop header introduces
	// the indexes.
	declares bool
	walk     []*tree_sitter.Node
}

type scope struct {
	treatment codemodel.Ref
	// names maps identifiers to informations. An empty Ref shadows outer
	// names without being modelled (parameters).
	names     map[string]codemodel.Ref
	structs   []codemodel.Ref
	loops     int
	indexes   map[string]int
	commented bool
}

type pendingComment struct {
	text  string
	after uintptr
}

type usage struct {
	treatment codemodel.Ref
	target    codemodel.Ref
	kind      string
}

// extraction walks one syntax tree and accumulates facts in source order.
type extraction struct {
	g     grammar
	src   []byte
	facts []codemodel.Fact

	scopes     []*scope
	functions  map[string]bool
	treatments map[string]int
	// latest maps a function name to its most recent declaration so far.
	latest   map[string]codemodel.Ref
	magic    map[string]codemodel.Ref
	seen     map[usage]bool
	consumed map[uintptr]bool
	seq      int

	// quiet suppresses magic numbers inside initializer lists.
	quiet int

	seenCode   bool
	headerDone bool
	pending    *pendingComment
}

func newExtraction(g grammar, src []byte) *extraction {
	return &extraction{
		g:          g,
		src:        src,
		functions:  make(map[string]bool),
		treatments: make(map[string]int),
		latest:     make(map[string]codemodel.Ref),
		magic:      make(map[string]codemodel.Ref),
		seen:       make(map[usage]bool),
		consumed:   make(map[uintptr]bool),
	}
}

func (x *extraction) run(root *tree_sitter.Node) []codemodel.Fact {
	x.collectFunctions(root)
	x.push("")
	if dg, ok := x.g.(docGrammar); ok {
		if doc, ok := dg.docstring(root, x.src); ok {
			x.emit(codemodel.CommentObserved{Text: doc, Target: codemodel.OnCode()})
			x.headerDone = true
		}
	}
	x.children(root)
	x.flushPending()
	return x.facts
}

// collectFunctions records every named function up front so calls to
// functions declared further down still count as sequencing.
func (x *extraction) collectFunctions(root *tree_sitter.Node) {
	cursor := root.Walk()
	defer cursor.Close()
	x.collect(cursor)
}

func (x *extraction) collect(cursor *tree_sitter.TreeCursor) {
	node := cursor.Node()
	if x.g.classify(node) == unitFunction {
		if fn := x.g.function(node, x.src); fn.name != "" {
			x.functions[fn.name] = true
		}
	}
	if cursor.GotoFirstChild() {
		x.collect(cursor)
		for cursor.GotoNextSibling() {
			x.collect(cursor)
		}
		cursor.GotoParent()
	}
}

func (x *extraction) emit(f codemodel.Fact) { x.facts = append(x.facts, f) }

func (x *extraction) next(prefix string) codemodel.Ref {
	x.seq++
	return codemodel.Ref(fmt.Sprintf("%s:%d", prefix, x.seq))
}

// --- Scopes ---

func (x *extraction) push(treatment codemodel.Ref) *scope {
	s := &scope{
		treatment: treatment,
		names:     make(map[string]codemodel.Ref),
		indexes:   make(map[string]int),
	}
	x.scopes = append(x.scopes, s)
	return s
}

func (x *extraction) pop() { x.scopes = x.scopes[:len(x.scopes)-1] }

func (x *extraction) top() *scope { return x.scopes[len(x.scopes)-1] }

func (x *extraction) resolve(name string) (codemodel.Ref, bool) {
	for i := len(x.scopes) - 1; i >= 0; i-- {
		if ref, ok := x.scopes[i].names[name]; ok {
			return ref, true
		}
	}
	return "", false
}

// --- Walk ---

func (x *extraction) children(n *tree_sitter.Node) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		x.visit(n.NamedChild(i))
	}
}

func (x *extraction) visit(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	u := x.g.classify(n)
	if u != unitComment {
		x.seenCode = true
	}

	switch u {
	case unitComment:
		x.comment(n)
	case unitImport:
		for _, name := range x.g.imports(n, x.src) {
			x.emit(codemodel.LibraryDeclared{Name: name})
		}
	case unitFunction:
		x.function(x.g.function(n, x.src), n)
	case unitDeclaration:
		x.declarations(n)
	case unitAssignment:
		x.assign(n)
	case unitIncrement:
		x.increment(n)
	case unitConditional:
		x.conditional(n)
	case unitLoop:
		x.loop(n)
	case unitCall:
		x.call(n)
		x.children(n)
	case unitNumber:
		x.number(n)
	case unitIdentifier:
		x.read(n.Utf8Text(x.src))
	case unitMember:
		if obj := n.ChildByFieldName("object"); obj != nil {
			x.visit(obj)
		} else {
			x.visit(n.ChildByFieldName("value"))
		}
	case unitLiteral, unitOpaque:
	default:
		x.children(n)
	}

	if x.pending != nil && x.pending.after == n.Id() {
		x.flushPending()
	}
}

func (x *extraction) function(fn function, node *tree_sitter.Node) {
	if fn.name == "" {
		x.visit(fn.body)
		return
	}

	ref := x.treatmentRef(fn.name)
	x.functions[fn.name] = true
	parent := x.top().treatment

	x.emit(codemodel.TreatmentDeclared{Ref: ref, Name: fn.name, Role: roleFor(fn.name)})
	if parent != "" {
		x.emit(codemodel.TreatmentComposed{Parent: parent, Child: ref})
	}
	commented := x.attachPending(codemodel.OnTreatment(ref))

	s := x.push(ref)
	s.commented = commented
	for _, p := range fn.params {
		for _, name := range identifiers(p, x.src) {
			s.names[name] = ""
		}
	}
	for _, c := range named(node) {
		if x.g.classify(c) == unitComment && !sameNode(c, fn.body) {
			x.comment(c)
		}
	}
	if dg, ok := x.g.(docGrammar); ok && fn.body != nil {
		if doc, ok := dg.docstring(fn.body, x.src); ok {
			x.commentOn(doc)
		}
	}
	x.visit(fn.body)
	x.flushPending()
	x.pop()
}

func (x *extraction) treatmentRef(name string) codemodel.Ref {
	n := x.treatments[name]
	x.treatments[name]++
	ref := codemodel.Ref("fn:" + name)
	if n > 0 {
		ref = codemodel.Ref(fmt.Sprintf("fn:%s#%d", name, n+1))
	}
	x.latest[name] = ref
	return ref
}

func (x *extraction) declarations(n *tree_sitter.Node) {
	for _, d := range x.g.declarations(n, x.src) {
		if d.outer {
			if ref, ok := x.resolve(d.name); ok {
				x.top().names[d.name] = ref
			}
			continue
		}
		if d.value != nil && x.g.classify(d.value) == unitFunction {
			fn := x.g.function(d.value, x.src)
			fn.name = d.name
			x.function(fn, d.value)
			continue
		}
		x.value(d.value)
		if d.name == "" || d.name == "_" {
			continue
		}
		ref := x.declare(d.name, d.typeName, d.constant, d.value)
		if d.value != nil {
			x.use(ref, codemodel.AsResult)
		}
	}
}

// value walks the right-hand side of a declaration or assignment. A bare
// literal is an initial value and composite literals list elements, so
// neither introduces magic numbers.
func (x *extraction) value(v *tree_sitter.Node) {
	if v == nil || x.isLiteral(v) {
		return
	}
	if _, ok := x.g.composite(v, x.src); ok {
		x.quiet++
		defer func() { x.quiet-- }()
	}
	x.visit(v)
}

func (x *extraction) declare(name, typeName string, constant bool, value *tree_sitter.Node) codemodel.Ref {
	ref := x.next("info")
	kind, inferred := x.kindOf(constant, typeName, value)
	if typeName == "" {
		typeName = inferred
	}
	x.emit(codemodel.InformationDeclared{Ref: ref, Name: name, Type: typeName, Kind: kind})
	x.top().names[name] = ref
	x.attachPending(codemodel.OnInformation(ref))
	return ref
}

func (x *extraction) kindOf(constant bool, typeName string, value *tree_sitter.Node) (codemodel.InformationKind, string) {
	if value == nil {
		if structuredType(typeName) {
			return codemodel.StructuredVariable{}, ""
		}
		if constant {
			return codemodel.Constant{}, ""
		}
		return codemodel.SimpleVariable{}, ""
	}
	if t, ok := x.g.composite(value, x.src); ok {
		return codemodel.StructuredVariable{}, t
	}
	if !x.isLiteral(value) {
		if constant {
			return codemodel.Constant{}, ""
		}
		if structuredType(typeName) {
			return codemodel.StructuredVariable{}, ""
		}
		return codemodel.SimpleVariable{Initialized: true}, ""
	}
	v, t := literalValue(value.Utf8Text(x.src))
	if constant {
		return codemodel.Constant{Value: v}, t
	}
	return codemodel.SimpleVariable{Initialized: true, InitialValue: v}, t
}

func (x *extraction) isLiteral(n *tree_sitter.Node) bool {
	switch x.g.classify(n) {
	case unitNumber, unitLiteral:
		return true
	}
	return false
}

func (x *extraction) assign(n *tree_sitter.Node) {
	a := x.g.assignment(n, x.src)
	if a.value != nil && len(a.targets) == 1 && a.declare && x.g.classify(a.value) == unitFunction {
		if _, known := x.top().names[a.targets[0]]; !known {
			fn := x.g.function(a.value, x.src)
			fn.name = a.targets[0]
			x.function(fn, a.value)
			return
		}
	}
	x.value(a.value)

	for _, name := range a.targets {
		if name == "_" {
			continue
		}
		ref, ok := x.resolve(name)
		if _, local := x.top().names[name]; a.declare && !local && a.op == "=" {
			constant := len(x.scopes) == 1 && isConstantName(name)
			ref = x.declare(name, a.typeName, constant, a.value)
			if a.value != nil {
				x.use(ref, codemodel.AsResult)
			}
			continue
		}
		if !ok || ref == "" {
			continue
		}

		op, value := a.op, a.value
		if op == "=" {
			op, value = x.selfUpdate(name, value)
		}
		if op != "=" {
			x.use(ref, codemodel.AsData)
		}
		x.use(ref, codemodel.AsResult)
		x.compoundRole(name, ref, op, value)
	}
}

// selfUpdate rewrites "x = x + y" as "x += y".
func (x *extraction) selfUpdate(name string, value *tree_sitter.Node) (string, *tree_sitter.Node) {
	if value == nil {
		return "=", value
	}
	switch value.Kind() {
	case "binary_expression", "binary_operator":
	default:
		return "=", value
	}
	left := value.ChildByFieldName("left")
	op := value.ChildByFieldName("operator")
	if left == nil || op == nil || left.Utf8Text(x.src) != name {
		return "=", value
	}
	switch o := op.Utf8Text(x.src); o {
	case "+", "-", "*":
		return o + "=", value.ChildByFieldName("right")
	}
	return "=", value
}

func (x *extraction) compoundRole(name string, ref codemodel.Ref, op string, value *tree_sitter.Node) {
	if op == "=" || op == ":=" || op == "" {
		return
	}
	s := x.top()
	if (op == "+=" || op == "-=") && value != nil && value.Utf8Text(x.src) == "1" {
		if s.indexes[name] == 0 {
			x.role(ref, codemodel.Counter)
		}
		return
	}
	if s.loops > 0 {
		x.role(ref, codemodel.Accumulator)
	}
}

func (x *extraction) increment(n *tree_sitter.Node) {
	name := x.g.increment(n, x.src)
	ref, ok := x.resolve(name)
	if !ok || ref == "" {
		x.children(n)
		return
	}
	x.use(ref, codemodel.AsData)
	x.use(ref, codemodel.AsResult)
	if x.top().indexes[name] == 0 {
		x.role(ref, codemodel.Counter)
	}
}

func (x *extraction) conditional(n *tree_sitter.Node) {
	if x.consumed[n.Id()] {
		x.children(n)
		return
	}
	shape, chain := x.g.conditional(n)
	for _, c := range chain {
		x.consumed[c.Id()] = true
	}
	x.structure(shape, func() { x.children(n) })
}

func (x *extraction) loop(n *tree_sitter.Node) {
	l := x.g.loop(n, x.src)
	shape := l.shape
	if shape.Kind == codemodel.ShapeUnknownCount {
		breaks := 0
		for _, w := range l.walk {
			breaks += x.breaks(w)
		}
		switch {
		case shape.Condition == codemodel.ConditionMiddle && breaks > 1,
			shape.Condition != codemodel.ConditionMiddle && breaks > 0:
			shape.Condition = codemodel.ConditionMultiple
		}
	}

	s := x.top()
	if !l.declares {
		for _, name := range l.indexes {
			if _, local := s.names[name]; !local && name != "_" {
				ref := x.next("info")
				x.emit(codemodel.InformationDeclared{Ref: ref, Name: name, Kind: codemodel.SimpleVariable{}})
				s.names[name] = ref
			}
		}
	}

	x.structure(shape, func() {
		s.loops++
		for _, name := range l.indexes {
			s.indexes[name]++
		}
		for _, w := range l.walk {
			x.visit(w)
		}
		for _, name := range l.indexes {
			s.indexes[name]--
		}
		s.loops--
	})

	for _, name := range l.indexes {
		if ref, ok := x.resolve(name); ok && ref != "" {
			x.role(ref, codemodel.LoopIndex)
		}
	}
}

// breaks counts the break statements that leave the loop owning n.
func (x *extraction) breaks(n *tree_sitter.Node) int {
	if n == nil {
		return 0
	}
	if x.g.isBreak(n.Kind()) {
		return 1
	}
	switch x.g.classify(n) {
	case unitLoop, unitFunction:
		return 0
	case unitConditional:
		if shape, _ := x.g.conditional(n); shape.IsSwitch() {
			return 0
		}
	}
	count := 0
	for i := uint(0); i < n.NamedChildCount(); i++ {
		count += x.breaks(n.NamedChild(i))
	}
	return count
}

func (x *extraction) structure(shape codemodel.ControlShape, walk func()) {
	s := x.top()
	if s.treatment == "" {
		walk()
		return
	}
	ref := x.next("cs")
	f := codemodel.ControlStructureObserved{Ref: ref, Treatment: s.treatment, Shape: shape}
	if len(s.structs) > 0 {
		f.Parent = s.structs[len(s.structs)-1]
	}
	x.emit(f)
	s.structs = append(s.structs, ref)
	walk()
	s.structs = s.structs[:len(s.structs)-1]
}

func (x *extraction) call(n *tree_sitter.Node) {
	callee := x.g.callee(n, x.src)
	current := x.top().treatment
	if callee == "" || current == "" || !x.functions[callee] {
		return
	}
	// A call binds to the latest declaration above it, or to the first one
	// below it when the name is only declared further down.
	after, ok := x.latest[callee]
	if !ok {
		after = codemodel.Ref("fn:" + callee)
	}
	if x.once(usage{current, after, "after"}) {
		x.emit(codemodel.TreatmentSequenced{Before: current, After: after})
	}
}

func (x *extraction) number(n *tree_sitter.Node) {
	if x.top().treatment == "" || x.quiet > 0 {
		return
	}
	text := n.Utf8Text(x.src)
	switch text {
	case "0", "1", "0.0", "1.0":
		return
	}
	ref, ok := x.magic[text]
	if !ok {
		ref = codemodel.Ref("magic:" + text)
		v, t := literalValue(text)
		x.emit(codemodel.InformationDeclared{Ref: ref, Name: text, Type: t, Kind: codemodel.MagicNumber{Value: v}})
		x.magic[text] = ref
	}
	x.use(ref, codemodel.AsData)
}

func (x *extraction) read(name string) {
	if ref, ok := x.resolve(name); ok && ref != "" {
		x.use(ref, codemodel.AsData)
	}
}

func (x *extraction) use(ref codemodel.Ref, u codemodel.Usage) {
	t := x.top().treatment
	if t == "" || !x.once(usage{t, ref, string(u)}) {
		return
	}
	x.emit(codemodel.InformationUsedBy{Treatment: t, Info: ref, Usage: u})
}

func (x *extraction) role(ref codemodel.Ref, r codemodel.Role) {
	if x.once(usage{"", ref, strings.Join(r.Names(), ",")}) {
		x.emit(codemodel.InformationRoleObserved{Info: ref, Role: r})
	}
}

func (x *extraction) once(u usage) bool {
	if x.seen[u] {
		return false
	}
	x.seen[u] = true
	return true
}

// --- Comments ---

// comment merges a run of comments on consecutive lines and attaches it:
// to the file when nothing precedes it, to the declaration starting on the
// next line, or to the enclosing treatment.
func (x *extraction) comment(n *tree_sitter.Node) {
	if x.consumed[n.Id()] {
		return
	}
	lines := []string{cleanComment(n.Utf8Text(x.src))}
	end := lastRow(n)
	next := n.NextNamedSibling()
	for next != nil && x.g.classify(next) == unitComment && next.StartPosition().Row == end+1 {
		lines = append(lines, cleanComment(next.Utf8Text(x.src)))
		x.consumed[next.Id()] = true
		end = lastRow(next)
		next = next.NextNamedSibling()
	}
	text := strings.Join(lines, "\n")
	x.flushPending()

	adjacent := next != nil && next.StartPosition().Row == end+1 && x.declares(next, 2)
	switch {
	case adjacent:
		x.pending = &pendingComment{text: text, after: next.Id()}
	case !x.seenCode && !x.headerDone:
		x.emit(codemodel.CommentObserved{Text: text, Target: codemodel.OnCode()})
		x.headerDone = true
	default:
		x.commentOn(text)
	}
}

// declares reports whether n, or its first named descendants down to
// depth, declares a function or an information.
func (x *extraction) declares(n *tree_sitter.Node, depth int) bool {
	switch x.g.classify(n) {
	case unitFunction, unitDeclaration, unitAssignment:
		return true
	}
	if depth == 0 || n.NamedChildCount() == 0 {
		return false
	}
	return x.declares(n.NamedChild(0), depth-1)
}

func (x *extraction) attachPending(target codemodel.TargetRef) bool {
	if x.pending == nil {
		return false
	}
	x.emit(codemodel.CommentObserved{Text: x.pending.text, Target: target})
	x.pending = nil
	return true
}

func (x *extraction) flushPending() {
	if x.pending == nil {
		return
	}
	text := x.pending.text
	x.pending = nil
	x.commentOn(text)
}

// commentOn attaches text to the enclosing treatment if it has no comment
// yet, and keeps it free-standing otherwise.
func (x *extraction) commentOn(text string) {
	s := x.top()
	if s.treatment != "" && !s.commented {
		s.commented = true
		x.emit(codemodel.CommentObserved{Text: text, Target: codemodel.OnTreatment(s.treatment)})
		return
	}
	x.emit(codemodel.CommentObserved{Text: text})
}

// --- Helpers ---

// identifiers lists the names of the identifier nodes under n, n included.
func identifiers(n *tree_sitter.Node, src []byte) []string {
	if n == nil {
		return nil
	}
	if n.Kind() == "identifier" {
		return []string{n.Utf8Text(src)}
	}
	var out []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		out = append(out, identifiers(n.NamedChild(i), src)...)
	}
	return out
}

// named returns the named children of n.
func named(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// namedChildren returns the named children of n of the given kinds.
func namedChildren(n *tree_sitter.Node, kinds ...string) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		for _, k := range kinds {
			if c.Kind() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// lastRow is the row holding the last character of n. Line comments may
// end at column 0 of the following row when they include the newline.
func lastRow(n *tree_sitter.Node) uint {
	end := n.EndPosition()
	if end.Column == 0 && end.Row > n.StartPosition().Row {
		return end.Row - 1
	}
	return end.Row
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a != nil && b != nil && a.Id() == b.Id()
}

func text(n *tree_sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(src)
}

// chainShape classifies an if statement from the number of if/else-if
// branches and whether a final else exists.
func chainShape(branches int, hasElse bool) codemodel.ControlShape {
	switch {
	case branches <= 1 && !hasElse:
		return codemodel.If()
	case branches <= 1:
		return codemodel.IfElse()
	case hasElse:
		return codemodel.ElseIfChainWithElse(branches)
	default:
		return codemodel.ElseIfChain(branches)
	}
}

var inputPrefixes = []string{"read", "get", "input", "scan", "parse", "load", "fetch", "ask", "lire", "saisir"}

var outputPrefixes = []string{"print", "write", "show", "display", "output", "log", "render", "save", "send", "emit", "afficher", "ecrire"}

// roleFor guesses a treatment role from its name.
func roleFor(name string) codemodel.TreatmentRole {
	lower := strings.ToLower(name)
	for _, p := range inputPrefixes {
		if strings.HasPrefix(lower, p) {
			return codemodel.Input
		}
	}
	for _, p := range outputPrefixes {
		if strings.HasPrefix(lower, p) {
			return codemodel.Output
		}
	}
	return codemodel.Calculation
}

// isConstantName reports whether name is written in capitals only.
func isConstantName(name string) bool {
	upper := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			upper = true
		}
	}
	return upper
}

var structuredPrefixes = []string{"[", "map[", "struct", "Vec<", "HashMap<", "HashSet<", "Array<", "Map<", "Set<", "list", "dict", "tuple", "set["}

func structuredType(t string) bool {
	if strings.HasSuffix(t, "[]") {
		return true
	}
	for _, p := range structuredPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// literalValue decodes a literal and names its type.
func literalValue(lit string) (any, string) {
	switch lit {
	case "true", "True":
		return true, "bool"
	case "false", "False":
		return false, "bool"
	}
	if lit != "" && strings.ContainsRune("\"'`", rune(lit[0])) {
		return strings.Trim(lit, "\"'`"), "string"
	}
	clean := strings.ReplaceAll(lit, "_", "")
	if i, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return i, "int"
	}
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f, "float"
	}
	return lit, ""
}

// cleanComment strips comment markers and surrounding blanks.
func cleanComment(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "/*") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
		lines := strings.Split(s, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "* ")
			lines[i] = strings.TrimPrefix(lines[i], "*")
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	for _, marker := range []string{"///", "//!", "//", "#"} {
		if strings.HasPrefix(s, marker) {
			return strings.TrimSpace(strings.TrimPrefix(s, marker))
		}
	}
	return s
}
