package codemodel

// Snapshot is a self-contained, JSON-serialisable copy of a whole Code. It
// is what export, persistence and the MCP tools work from.
type Snapshot struct {
	ID           string             `json:"id"`
	Path         string             `json:"path"`
	Libraries    []Library          `json:"libraries"`
	Types        []Type             `json:"types"`
	Informations []InformationNode  `json:"informations"`
	Treatments   []Treatment        `json:"treatments"`
	Structures   []ControlStructure `json:"structures"`
	Comments     []CommentNode      `json:"comments"`
	Edges        []Edge             `json:"edges"`
	Stats        Stats              `json:"stats"`
}

// InformationNode flattens an Information so its kind survives encoding.
type InformationNode struct {
	ID          InfoID           `json:"id"`
	Name        string           `json:"name"`
	Convention  NamingConvention `json:"convention"`
	Type        string           `json:"type"`
	Kind        string           `json:"kind"`
	Value       any              `json:"value,omitempty"`
	Initialized bool             `json:"initialized,omitempty"`
	Roles       []string         `json:"roles,omitempty"`
}

// CommentNode flattens a Comment. Target is "" for an orphaned comment and
// TargetID is set for information and treatment targets.
type CommentNode struct {
	ID       CommentID `json:"id"`
	Text     string    `json:"text"`
	Target   string    `json:"target,omitempty"`
	TargetID *int      `json:"targetId,omitempty"`
}

// Edge is one relation between two entities, identified by their IDs. The
// ID space of From and To depends on Kind.
type Edge struct {
	Kind EdgeKind `json:"kind"`
	From int      `json:"from"`
	To   int      `json:"to"`
}

// NewInformationNode flattens info.
func NewInformationNode(info Information) InformationNode {
	n := InformationNode{
		ID:         info.ID,
		Name:       info.Name,
		Convention: info.Convention,
		Type:       info.TypeName,
		Kind:       KindName(info.Kind),
		Roles:      info.Roles.Names(),
	}
	switch k := info.Kind.(type) {
	case Constant:
		n.Value = k.Value
	case MagicNumber:
		n.Value = k.Value
	case SimpleVariable:
		n.Initialized = k.Initialized
		n.Value = k.InitialValue
	}
	return n
}

// NewCommentNode flattens cm.
func NewCommentNode(cm Comment) CommentNode {
	n := CommentNode{ID: cm.ID, Text: cm.Text, Target: TargetName(cm.Target)}
	switch t := cm.Target.(type) {
	case AboutInformation:
		id := int(t.ID)
		n.TargetID = &id
	case AboutTreatment:
		id := int(t.ID)
		n.TargetID = &id
	}
	return n
}

// Snapshot copies the model under the read lock. Every list is in
// appearance order; edges are grouped by kind, then by source.
func (c *Code) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		ID:           c.id,
		Path:         c.path,
		Libraries:    c.libraries.list(AppearanceOrder),
		Types:        c.informations.types(),
		Informations: make([]InformationNode, 0, c.informations.live),
		Treatments:   c.treatments.list(TreatmentsAll, AppearanceOrder),
		Structures:   make([]ControlStructure, 0, c.structures.live),
		Comments:     make([]CommentNode, 0, c.comments.live),
		Edges:        []Edge{},
		Stats:        c.stats(),
	}
	c.informations.each(func(i Information) {
		s.Informations = append(s.Informations, NewInformationNode(i))
	})
	c.structures.each(func(cs ControlStructure) { s.Structures = append(s.Structures, cs) })
	c.comments.each(func(cm Comment) { s.Comments = append(s.Comments, NewCommentNode(cm)) })

	add := func(kind EdgeKind, from int, to []int) {
		for _, t := range to {
			s.Edges = append(s.Edges, Edge{Kind: kind, From: from, To: t})
		}
	}
	for _, t := range s.Treatments {
		add(EdgeUsesAsData, int(t.ID), ints(c.data.right(t.ID)))
	}
	for _, t := range s.Treatments {
		add(EdgeProduces, int(t.ID), ints(c.results.right(t.ID)))
	}
	for _, t := range s.Treatments {
		add(EdgeExecutesAfter, int(t.ID), ints(c.treatments.after.right(t.ID)))
	}
	for _, t := range s.Treatments {
		add(EdgeSubTreatment, int(t.ID), ints(t.SubTreatments))
	}
	for _, i := range s.Informations {
		add(EdgeComponent, int(i.ID), ints(c.informations.arena[i.ID].components))
	}
	return s
}

func ints[T ~int](ids []T) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
