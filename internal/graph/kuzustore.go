//go:build cgo

package graph

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
//
// Every entity node carries the owning code ID and its local ID; its uid is
// "<code id>/<table>/<local id>". Edge tables carry a seq property holding
// the edge's position in the snapshot so order survives the round trip.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, so persisted models survive across sessions.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf directory itself.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Code(
		id STRING,
		path STRING,
		types_json STRING,
		stats_json STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Library(
		uid STRING,
		code_id STRING,
		local_id INT64,
		name STRING,
		PRIMARY KEY(uid)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Information(
		uid STRING,
		code_id STRING,
		local_id INT64,
		name STRING,
		convention STRING,
		type_name STRING,
		kind STRING,
		value_json STRING,
		initialized BOOLEAN,
		roles STRING,
		PRIMARY KEY(uid)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Treatment(
		uid STRING,
		code_id STRING,
		local_id INT64,
		name STRING,
		role STRING,
		PRIMARY KEY(uid)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Structure(
		uid STRING,
		code_id STRING,
		local_id INT64,
		treatment_id INT64,
		kind STRING,
		cond STRING,
		branches INT64,
		PRIMARY KEY(uid)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Comment(
		uid STRING,
		code_id STRING,
		local_id INT64,
		text STRING,
		target STRING,
		PRIMARY KEY(uid)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_LIBRARY(FROM Code TO Library)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_INFORMATION(FROM Code TO Information)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_TREATMENT(FROM Code TO Treatment)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_STRUCTURE(FROM Code TO Structure)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_COMMENT(FROM Code TO Comment)`,
	`CREATE REL TABLE IF NOT EXISTS USES_AS_DATA(FROM Treatment TO Information, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS PRODUCES(FROM Treatment TO Information, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS EXECUTES_AFTER(FROM Treatment TO Treatment, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS SUB_TREATMENT(FROM Treatment TO Treatment, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS COMPONENT(FROM Information TO Information, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS CHILD(FROM Structure TO Structure, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS DESCRIBES_INFORMATION(FROM Comment TO Information)`,
	`CREATE REL TABLE IF NOT EXISTS DESCRIBES_TREATMENT(FROM Comment TO Treatment)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// modelRels maps snapshot edge kinds to their table and endpoint tables.
var modelRels = map[codemodel.EdgeKind]struct {
	rel      RelTable
	from, to NodeTable
}{
	codemodel.EdgeUsesAsData:    {RelUsesAsData, TableTreatment, TableInformation},
	codemodel.EdgeProduces:      {RelProduces, TableTreatment, TableInformation},
	codemodel.EdgeExecutesAfter: {RelExecutesAfter, TableTreatment, TableTreatment},
	codemodel.EdgeSubTreatment:  {RelSubTreatment, TableTreatment, TableTreatment},
	codemodel.EdgeComponent:     {RelComponent, TableInformation, TableInformation},
}

// SaveSnapshot writes snap in one transaction, first deleting any snapshot
// stored under the same ID.
func (s *KuzuStore) SaveSnapshot(ctx context.Context, snap codemodel.Snapshot) error {
	if snap.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := s.save(ctx, snap); err != nil {
		_ = s.run("ROLLBACK")
		return err
	}
	return s.run("COMMIT")
}

func (s *KuzuStore) save(ctx context.Context, snap codemodel.Snapshot) error {
	if err := s.deleteCode(snap.ID); err != nil {
		return err
	}

	typesJSON, err := json.Marshal(snap.Types)
	if err != nil {
		return fmt.Errorf("kuzu: encode types: %w", err)
	}
	statsJSON, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("kuzu: encode stats: %w", err)
	}
	if err := s.exec(
		"CREATE (c:Code {id: $id, path: $path, types_json: $types, stats_json: $stats})",
		map[string]any{"id": snap.ID, "path": snap.Path, "types": string(typesJSON), "stats": string(statsJSON)},
	); err != nil {
		return err
	}

	for _, lib := range snap.Libraries {
		if err := s.addNode(snap.ID, TableLibrary, RelHasLibrary, int(lib.ID),
			"name: $name", map[string]any{"name": lib.Name}); err != nil {
			return err
		}
	}
	for _, info := range snap.Informations {
		value, err := json.Marshal(info.Value)
		if err != nil {
			return fmt.Errorf("kuzu: encode value of %s: %w", info.Name, err)
		}
		if err := s.addNode(snap.ID, TableInformation, RelHasInformation, int(info.ID),
			`name: $name, convention: $conv, type_name: $type, kind: $kind,
			 value_json: $value, initialized: $init, roles: $roles`,
			map[string]any{
				"name":  info.Name,
				"conv":  string(info.Convention),
				"type":  info.Type,
				"kind":  info.Kind,
				"value": string(value),
				"init":  info.Initialized,
				"roles": strings.Join(info.Roles, ","),
			}); err != nil {
			return err
		}
	}
	for _, t := range snap.Treatments {
		if err := s.addNode(snap.ID, TableTreatment, RelHasTreatment, int(t.ID),
			"name: $name, role: $role", map[string]any{"name": t.Name, "role": string(t.Role)}); err != nil {
			return err
		}
	}
	for _, cs := range snap.Structures {
		if err := s.addNode(snap.ID, TableStructure, RelHasStructure, int(cs.ID),
			"treatment_id: $t, kind: $kind, cond: $cond, branches: $branches",
			map[string]any{
				"t":        int64(cs.Treatment),
				"kind":     string(cs.Shape.Kind),
				"cond":     string(cs.Shape.Condition),
				"branches": int64(cs.Shape.Branches),
			}); err != nil {
			return err
		}
	}
	for _, cm := range snap.Comments {
		if err := s.addNode(snap.ID, TableComment, RelHasComment, int(cm.ID),
			"text: $text, target: $target", map[string]any{"text": cm.Text, "target": cm.Target}); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for seq, e := range snap.Edges {
		r, ok := modelRels[e.Kind]
		if !ok {
			return fmt.Errorf("kuzu: unsupported edge kind: %s", e.Kind)
		}
		if err := s.addRel(r.rel, nodeKey(snap.ID, r.from, e.From), r.from, nodeKey(snap.ID, r.to, e.To), r.to, seq); err != nil {
			return err
		}
	}
	for _, cs := range snap.Structures {
		for seq, child := range cs.Children {
			if err := s.addRel(RelChild, nodeKey(snap.ID, TableStructure, int(cs.ID)), TableStructure,
				nodeKey(snap.ID, TableStructure, int(child)), TableStructure, seq); err != nil {
				return err
			}
		}
	}
	for _, cm := range snap.Comments {
		if cm.TargetID == nil {
			continue
		}
		rel, to := RelDescribesInfo, TableInformation
		if cm.Target == string(codemodel.CommentsAboutTreatment) {
			rel, to = RelDescribesTreatment, TableTreatment
		}
		if err := s.addRel(rel, nodeKey(snap.ID, TableComment, int(cm.ID)), TableComment,
			nodeKey(snap.ID, to, *cm.TargetID), to, -1); err != nil {
			return err
		}
	}
	return nil
}

// addNode creates an entity node with the given extra properties and links
// it to its Code.
func (s *KuzuStore) addNode(codeID string, table NodeTable, has RelTable, localID int, props string, params map[string]any) error {
	key := nodeKey(codeID, table, localID)
	params["uid"] = key
	params["code"] = codeID
	params["local"] = int64(localID)
	// Table names are fixed internal constants, not user input.
	create := fmt.Sprintf("CREATE (n:%s {uid: $uid, code_id: $code, local_id: $local, %s})", table, props)
	if err := s.exec(create, params); err != nil {
		return err
	}
	return s.exec(
		fmt.Sprintf("MATCH (c:Code {id: $code}), (n:%s {uid: $uid}) CREATE (c)-[:%s]->(n)", table, has),
		map[string]any{"code": codeID, "uid": key},
	)
}

// addRel links two entity nodes. A negative seq creates an edge without
// the seq property.
func (s *KuzuStore) addRel(rel RelTable, src string, from NodeTable, dst string, to NodeTable, seq int) error {
	params := map[string]any{"src": src, "dst": dst}
	props := ""
	if seq >= 0 {
		props = " {seq: $seq}"
		params["seq"] = int64(seq)
	}
	return s.exec(
		fmt.Sprintf("MATCH (a:%s {uid: $src}), (b:%s {uid: $dst}) CREATE (a)-[:%s%s]->(b)", from, to, rel, props),
		params,
	)
}

// deleteCode removes a code and every entity it owns, with their edges.
func (s *KuzuStore) deleteCode(id string) error {
	for _, table := range NodeTables[1:] {
		if err := s.exec(
			fmt.Sprintf("MATCH (n:%s) WHERE n.code_id = $id DETACH DELETE n", table),
			map[string]any{"id": id},
		); err != nil {
			return err
		}
	}
	return s.exec("MATCH (c:Code) WHERE c.id = $id DETACH DELETE c", map[string]any{"id": id})
}

func nodeKey(codeID string, table NodeTable, localID int) string {
	return fmt.Sprintf("%s/%s/%d", codeID, table, localID)
}

// ---------- Read operations ----------

// GetSnapshot rebuilds a stored snapshot, or returns nil if not found.
// Information values come back as their JSON decoding, so integers become
// float64.
func (s *KuzuStore) GetSnapshot(_ context.Context, id string) (*codemodel.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(
		"MATCH (c:Code {id: $id}) RETURN c.path, c.types_json, c.stats_json",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	snap := &codemodel.Snapshot{ID: id, Path: toString(rows[0][0])}
	if err := json.Unmarshal([]byte(toString(rows[0][1])), &snap.Types); err != nil {
		return nil, fmt.Errorf("kuzu: decode types: %w", err)
	}
	if err := json.Unmarshal([]byte(toString(rows[0][2])), &snap.Stats); err != nil {
		return nil, fmt.Errorf("kuzu: decode stats: %w", err)
	}

	if snap.Libraries, err = s.libraries(id); err != nil {
		return nil, err
	}
	if snap.Informations, err = s.informations(id); err != nil {
		return nil, err
	}
	if snap.Treatments, err = s.treatments(id); err != nil {
		return nil, err
	}
	if snap.Structures, err = s.structures(id); err != nil {
		return nil, err
	}
	if snap.Comments, err = s.comments(id); err != nil {
		return nil, err
	}
	if snap.Edges, err = s.edges(id); err != nil {
		return nil, err
	}

	for i, t := range snap.Treatments {
		for _, e := range snap.Edges {
			if e.Kind == codemodel.EdgeSubTreatment && e.From == int(t.ID) {
				snap.Treatments[i].SubTreatments = append(snap.Treatments[i].SubTreatments, codemodel.TreatmentID(e.To))
			}
		}
	}
	return snap, nil
}

func (s *KuzuStore) libraries(id string) ([]codemodel.Library, error) {
	rows, err := s.query(
		"MATCH (n:Library) WHERE n.code_id = $id RETURN n.local_id, n.name ORDER BY n.local_id",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]codemodel.Library, 0, len(rows))
	for _, r := range rows {
		out = append(out, codemodel.Library{ID: codemodel.LibraryID(toInt(r[0])), Name: toString(r[1])})
	}
	return out, nil
}

func (s *KuzuStore) informations(id string) ([]codemodel.InformationNode, error) {
	rows, err := s.query(
		`MATCH (n:Information) WHERE n.code_id = $id
		 RETURN n.local_id, n.name, n.convention, n.type_name, n.kind, n.value_json, n.initialized, n.roles
		 ORDER BY n.local_id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]codemodel.InformationNode, 0, len(rows))
	for _, r := range rows {
		n := codemodel.InformationNode{
			ID:          codemodel.InfoID(toInt(r[0])),
			Name:        toString(r[1]),
			Convention:  codemodel.NamingConvention(toString(r[2])),
			Type:        toString(r[3]),
			Kind:        toString(r[4]),
			Initialized: toBool(r[6]),
		}
		if err := json.Unmarshal([]byte(toString(r[5])), &n.Value); err != nil {
			return nil, fmt.Errorf("kuzu: decode value of %s: %w", n.Name, err)
		}
		if roles := toString(r[7]); roles != "" {
			n.Roles = strings.Split(roles, ",")
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *KuzuStore) treatments(id string) ([]codemodel.Treatment, error) {
	rows, err := s.query(
		"MATCH (n:Treatment) WHERE n.code_id = $id RETURN n.local_id, n.name, n.role ORDER BY n.local_id",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]codemodel.Treatment, 0, len(rows))
	for _, r := range rows {
		out = append(out, codemodel.Treatment{
			ID:   codemodel.TreatmentID(toInt(r[0])),
			Name: toString(r[1]),
			Role: codemodel.TreatmentRole(toString(r[2])),
		})
	}
	return out, nil
}

func (s *KuzuStore) structures(id string) ([]codemodel.ControlStructure, error) {
	rows, err := s.query(
		`MATCH (n:Structure) WHERE n.code_id = $id
		 RETURN n.local_id, n.treatment_id, n.kind, n.cond, n.branches ORDER BY n.local_id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]codemodel.ControlStructure, 0, len(rows))
	index := make(map[int]int, len(rows))
	for _, r := range rows {
		index[toInt(r[0])] = len(out)
		out = append(out, codemodel.ControlStructure{
			ID:        codemodel.StructureID(toInt(r[0])),
			Treatment: codemodel.TreatmentID(toInt(r[1])),
			Shape: codemodel.ControlShape{
				Kind:      codemodel.ShapeKind(toString(r[2])),
				Condition: codemodel.ConditionPosition(toString(r[3])),
				Branches:  toInt(r[4]),
			},
		})
	}

	children, err := s.query(
		`MATCH (a:Structure)-[r:CHILD]->(b:Structure) WHERE a.code_id = $id
		 RETURN a.local_id, b.local_id ORDER BY a.local_id, r.seq`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	for _, r := range children {
		if i, ok := index[toInt(r[0])]; ok {
			out[i].Children = append(out[i].Children, codemodel.StructureID(toInt(r[1])))
		}
	}
	return out, nil
}

func (s *KuzuStore) comments(id string) ([]codemodel.CommentNode, error) {
	rows, err := s.query(
		"MATCH (n:Comment) WHERE n.code_id = $id RETURN n.local_id, n.text, n.target ORDER BY n.local_id",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]codemodel.CommentNode, 0, len(rows))
	index := make(map[int]int, len(rows))
	for _, r := range rows {
		index[toInt(r[0])] = len(out)
		out = append(out, codemodel.CommentNode{
			ID:     codemodel.CommentID(toInt(r[0])),
			Text:   toString(r[1]),
			Target: toString(r[2]),
		})
	}

	for _, q := range []string{
		"MATCH (c:Comment)-[:DESCRIBES_INFORMATION]->(t:Information) WHERE c.code_id = $id RETURN c.local_id, t.local_id",
		"MATCH (c:Comment)-[:DESCRIBES_TREATMENT]->(t:Treatment) WHERE c.code_id = $id RETURN c.local_id, t.local_id",
	} {
		rows, err := s.query(q, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if i, ok := index[toInt(r[0])]; ok {
				target := toInt(r[1])
				out[i].TargetID = &target
			}
		}
	}
	return out, nil
}

// edges returns the model edges in their original snapshot order.
func (s *KuzuStore) edges(id string) ([]codemodel.Edge, error) {
	type seqEdge struct {
		seq  int
		edge codemodel.Edge
	}
	var all []seqEdge
	for kind, r := range modelRels {
		rows, err := s.query(
			fmt.Sprintf("MATCH (a:%s)-[r:%s]->(b:%s) WHERE a.code_id = $id RETURN r.seq, a.local_id, b.local_id",
				r.from, r.rel, r.to),
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			all = append(all, seqEdge{
				seq:  toInt(row[0]),
				edge: codemodel.Edge{Kind: kind, From: toInt(row[1]), To: toInt(row[2])},
			})
		}
	}
	slices.SortFunc(all, func(a, b seqEdge) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]codemodel.Edge, len(all))
	for i, e := range all {
		out[i] = e.edge
	}
	return out, nil
}

// ListCodes returns one summary per stored Code node.
func (s *KuzuStore) ListCodes(_ context.Context) ([]CodeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query("MATCH (c:Code) RETURN c.id, c.path", nil)
	if err != nil {
		return nil, err
	}
	out := make([]CodeSummary, 0, len(rows))
	for _, r := range rows {
		sum := CodeSummary{ID: toString(r[0]), Path: toString(r[1])}
		counts := []struct {
			rel RelTable
			n   *int
		}{
			{RelHasInformation, &sum.Informations},
			{RelHasTreatment, &sum.Treatments},
			{RelHasStructure, &sum.Structures},
			{RelHasComment, &sum.Comments},
		}
		for _, c := range counts {
			n, err := s.queryCount(
				fmt.Sprintf("MATCH (c:Code {id: $id})-[r:%s]->() RETURN count(r)", c.rel),
				map[string]any{"id": sum.ID},
			)
			if err != nil {
				return nil, err
			}
			*c.n = n
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of all node tables and of the edges between entities.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &GraphStats{}
	counts := map[NodeTable]*int{
		TableCode:        &st.CodeCount,
		TableLibrary:     &st.LibraryCount,
		TableInformation: &st.InformationCount,
		TableTreatment:   &st.TreatmentCount,
		TableStructure:   &st.StructureCount,
		TableComment:     &st.CommentCount,
	}
	for table, n := range counts {
		c, err := s.queryCount(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
		if err != nil {
			return nil, err
		}
		*n = c
	}
	for _, rel := range []RelTable{
		RelUsesAsData, RelProduces, RelExecutesAfter, RelSubTreatment,
		RelComponent, RelChild, RelDescribesInfo, RelDescribesTreatment,
	} {
		c, err := s.queryCount(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", rel), nil)
		if err != nil {
			return nil, err
		}
		st.EdgeCount += c
	}
	return st, nil
}

// ---------- Internal helpers ----------

// run executes a statement without parameters or results.
func (s *KuzuStore) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: %s: %w", cypher, err)
	}
	res.Close()
	return nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) queryCount(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
