package graph

// --- Enums ---

// NodeTable names a node table of the persisted graph.
type NodeTable string

const (
	TableCode        NodeTable = "Code"
	TableLibrary     NodeTable = "Library"
	TableInformation NodeTable = "Information"
	TableTreatment   NodeTable = "Treatment"
	TableStructure   NodeTable = "Structure"
	TableComment     NodeTable = "Comment"
)

// NodeTables lists every node table, Code first.
var NodeTables = []NodeTable{TableCode, TableLibrary, TableInformation, TableTreatment, TableStructure, TableComment}

// RelTable names a relationship table of the persisted graph.
type RelTable string

const (
	RelHasLibrary         RelTable = "HAS_LIBRARY"
	RelHasInformation     RelTable = "HAS_INFORMATION"
	RelHasTreatment       RelTable = "HAS_TREATMENT"
	RelHasStructure       RelTable = "HAS_STRUCTURE"
	RelHasComment         RelTable = "HAS_COMMENT"
	RelUsesAsData         RelTable = "USES_AS_DATA"
	RelProduces           RelTable = "PRODUCES"
	RelExecutesAfter      RelTable = "EXECUTES_AFTER"
	RelSubTreatment       RelTable = "SUB_TREATMENT"
	RelComponent          RelTable = "COMPONENT"
	RelChild              RelTable = "CHILD"
	RelDescribesInfo      RelTable = "DESCRIBES_INFORMATION"
	RelDescribesTreatment RelTable = "DESCRIBES_TREATMENT"
)

// --- Models ---

// CodeSummary describes one persisted snapshot.
type CodeSummary struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	Informations int    `json:"informations"`
	Treatments   int    `json:"treatments"`
	Structures   int    `json:"structures"`
	Comments     int    `json:"comments"`
}

// GraphStats summarizes a persisted graph.
type GraphStats struct {
	CodeCount        int `json:"codeCount"`
	LibraryCount     int `json:"libraryCount"`
	InformationCount int `json:"informationCount"`
	TreatmentCount   int `json:"treatmentCount"`
	StructureCount   int `json:"structureCount"`
	CommentCount     int `json:"commentCount"`
	EdgeCount        int `json:"edgeCount"`
}
