package codemodel

import "fmt"

// --- Identifiers ---

// Entities live in per-store arenas and are addressed by their arena index.
// Indexes are never reused inside one Code, so ID order is appearance order.

// InfoID identifies an Information inside one Code.
type InfoID int

// TreatmentID identifies a Treatment inside one Code.
type TreatmentID int

// StructureID identifies a ControlStructure inside one Code.
type StructureID int

// CommentID identifies a Comment inside one Code.
type CommentID int

// LibraryID identifies a Library inside one Code.
type LibraryID int

// --- Enums ---

// NamingConvention is the case style an identifier is written in.
type NamingConvention string

const (
	CamelCase      NamingConvention = "camelCase"
	PascalCase     NamingConvention = "PascalCase"
	SnakeCase      NamingConvention = "snake_case"
	KebabCase      NamingConvention = "kebab-case"
	UndefinedStyle NamingConvention = "undefinedStyle"
)

// SortOrder selects the ordering of listing queries.
type SortOrder string

const (
	// Alphabetical sorts by name, case-sensitive ascending, ties kept in
	// appearance order.
	Alphabetical SortOrder = "alphabetical"
	// AppearanceOrder keeps insertion order, which mirrors source order.
	AppearanceOrder SortOrder = "appearanceOrder"
)

// ParseSortOrder accepts the English and the historical French spellings.
// An empty string selects AppearanceOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "appearanceOrder", "ordreApparition":
		return AppearanceOrder, nil
	case "alphabetical", "alphabetique":
		return Alphabetical, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// InfoFilter selects a category of informations.
type InfoFilter string

const (
	InfoAll                 InfoFilter = "all"
	InfoConstants           InfoFilter = "const"
	InfoMagicNumbers        InfoFilter = "magic"
	InfoVariables           InfoFilter = "var"
	InfoSimpleVariables     InfoFilter = "simpleVar"
	InfoStructuredVariables InfoFilter = "composedVar"
	InfoAccumulators        InfoFilter = "accu"
	InfoCounters            InfoFilter = "count"
	InfoLoopIndexes         InfoFilter = "index"
)

// ParseInfoFilter validates a filter string. An empty string selects InfoAll.
func ParseInfoFilter(s string) (InfoFilter, error) {
	if s == "" {
		return InfoAll, nil
	}
	switch f := InfoFilter(s); f {
	case InfoAll, InfoConstants, InfoMagicNumbers, InfoVariables, InfoSimpleVariables,
		InfoStructuredVariables, InfoAccumulators, InfoCounters, InfoLoopIndexes:
		return f, nil
	}
	return "", fmt.Errorf("unknown information filter %q", s)
}

// TreatmentFilter selects a category of treatments.
type TreatmentFilter string

const (
	TreatmentsAll         TreatmentFilter = "all"
	TreatmentsSimple      TreatmentFilter = "simple"
	TreatmentsComposed    TreatmentFilter = "composed"
	TreatmentsInput       TreatmentFilter = "in"
	TreatmentsOutput      TreatmentFilter = "out"
	TreatmentsCalculation TreatmentFilter = "calc"
)

// ParseTreatmentFilter validates a filter string. An empty string selects
// TreatmentsAll.
func ParseTreatmentFilter(s string) (TreatmentFilter, error) {
	if s == "" {
		return TreatmentsAll, nil
	}
	switch f := TreatmentFilter(s); f {
	case TreatmentsAll, TreatmentsSimple, TreatmentsComposed,
		TreatmentsInput, TreatmentsOutput, TreatmentsCalculation:
		return f, nil
	}
	return "", fmt.Errorf("unknown treatment filter %q", s)
}

// CommentFilter selects comments by the kind of their target.
type CommentFilter string

const (
	CommentsAll              CommentFilter = "all"
	CommentsAboutCode        CommentFilter = "code"
	CommentsAboutInformation CommentFilter = "information"
	CommentsAboutTreatment   CommentFilter = "traitement"
)

// ParseCommentFilter validates a filter string. "treatment" is accepted as
// an alias of "traitement".
func ParseCommentFilter(s string) (CommentFilter, error) {
	switch s {
	case "", "all":
		return CommentsAll, nil
	case "code":
		return CommentsAboutCode, nil
	case "information":
		return CommentsAboutInformation, nil
	case "traitement", "treatment":
		return CommentsAboutTreatment, nil
	}
	return "", fmt.Errorf("unknown comment filter %q", s)
}

// TreatmentRole is the role axis of a treatment. Exactly one applies.
type TreatmentRole string

const (
	Input       TreatmentRole = "input"
	Output      TreatmentRole = "output"
	Calculation TreatmentRole = "calculation"
)

// ParseTreatmentRole validates a role string. An empty string selects
// Calculation, the default role.
func ParseTreatmentRole(s string) (TreatmentRole, error) {
	switch r := TreatmentRole(s); r {
	case "":
		return Calculation, nil
	case Input, Output, Calculation:
		return r, nil
	}
	return "", fmt.Errorf("unknown treatment role %q", s)
}

// Role is a set of independent variable roles. A variable may carry any
// combination of them.
type Role uint8

const (
	Accumulator Role = 1 << iota
	Counter
	LoopIndex
)

// Has reports whether every role in r2 is set in r.
func (r Role) Has(r2 Role) bool { return r2 != 0 && r&r2 == r2 }

// Names returns the role names in a fixed order.
func (r Role) Names() []string {
	var out []string
	if r.Has(Accumulator) {
		out = append(out, "accumulator")
	}
	if r.Has(Counter) {
		out = append(out, "counter")
	}
	if r.Has(LoopIndex) {
		out = append(out, "loopIndex")
	}
	return out
}

// ParseRole maps a single role name to its flag.
func ParseRole(s string) (Role, error) {
	switch s {
	case "accumulator", "accu":
		return Accumulator, nil
	case "counter", "count":
		return Counter, nil
	case "loopIndex", "index":
		return LoopIndex, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Usage tells whether a treatment reads or writes an information.
type Usage string

const (
	AsData   Usage = "data"
	AsResult Usage = "result"
)

// EdgeKind classifies the relations exported in a Snapshot.
type EdgeKind string

const (
	EdgeUsesAsData    EdgeKind = "USES_AS_DATA"
	EdgeProduces      EdgeKind = "PRODUCES"
	EdgeExecutesAfter EdgeKind = "EXECUTES_AFTER"
	EdgeSubTreatment  EdgeKind = "SUB_TREATMENT"
	EdgeComponent     EdgeKind = "COMPONENT"
)
