//go:build cgo

package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// Kuzu stores the cumulative graph in a KuzuDB database: one Family node
// per gene family and one ADJACENT relationship per edge. A batch runs in a
// single manual transaction; the first failing statement aborts it.
type Kuzu struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ Store = (*Kuzu)(nil)

var kuzuSchema = []string{
	`CREATE NODE TABLE IF NOT EXISTS Family(
		id STRING,
		name STRING,
		size INT64,
		degree INT64,
		members STRING,
		seq_ids STRING,
		gene_ids STRING,
		genome_ids STRING,
		centroids STRING,
		long_centroid_id STRING,
		lengths STRING,
		max_len_id STRING,
		annotation STRING,
		description STRING,
		dna STRING,
		protein STRING,
		has_end BOOLEAN,
		paralog BOOLEAN,
		merged_dna BOOLEAN,
		last_iteration INT64,
		run_id STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS ADJACENT(
		FROM Family TO Family,
		members STRING,
		size INT64,
		last_iteration INT64,
		run_id STRING
	)`,
}

// NewKuzu opens (or creates) a database at path; ":memory:" opens an
// in-memory database. The schema is created when missing.
func NewKuzu(path string) (*Kuzu, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
		}
	}
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	k := &Kuzu{db: db, conn: conn}
	for _, stmt := range kuzuSchema {
		if err := k.run(stmt); err != nil {
			k.Close()
			return nil, fmt.Errorf("kuzu: init schema: %w", err)
		}
	}
	return k, nil
}

func (k *Kuzu) Commit(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := k.run("BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("kuzu: begin: %w", err)
	}
	if err := k.apply(ctx, b); err != nil {
		// A failed statement aborts the transaction inside Kuzu.
		var se *statementError
		if !errors.As(err, &se) {
			if rbErr := k.run("ROLLBACK"); rbErr != nil {
				return fmt.Errorf("kuzu: %w (rollback: %v)", err, rbErr)
			}
		}
		return fmt.Errorf("kuzu: %w", err)
	}
	if err := k.run("COMMIT"); err != nil {
		return fmt.Errorf("kuzu: commit: %w", err)
	}
	return nil
}

func (k *Kuzu) apply(ctx context.Context, b *Batch) error {
	for _, id := range b.RemovedNodes {
		if err := k.exec(`MATCH (f:Family {id: $id}) DETACH DELETE f`, map[string]any{"id": id}); err != nil {
			return err
		}
	}
	for _, key := range b.RemovedEdges {
		u, v, _ := strings.Cut(key, "|")
		if err := k.exec(deleteAdjacent, map[string]any{"u": u, "v": v}); err != nil {
			return err
		}
	}
	for i, n := range b.Nodes {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := k.exec(upsertFamily, n.params()); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.ID, err)
		}
	}
	for _, e := range b.Edges {
		params := map[string]any{"u": e.U, "v": e.V}
		if err := k.exec(deleteAdjacent, params); err != nil {
			return err
		}
		params["members"] = strings.Join(e.Members, ";")
		params["size"] = int64(e.Size)
		params["it"] = int64(e.LastIteration)
		params["run"] = e.RunID
		if err := k.exec(
			`MATCH (a:Family {id: $u}), (b:Family {id: $v})
			CREATE (a)-[:ADJACENT {members: $members, size: $size, last_iteration: $it, run_id: $run}]->(b)`,
			params,
		); err != nil {
			return fmt.Errorf("upsert edge %s: %w", e.Key, err)
		}
	}
	return ctx.Err()
}

// Edges are stored directed from the canonical smaller endpoint; Kuzu cannot
// delete through an undirected pattern.
const deleteAdjacent = `MATCH (a:Family {id: $u})-[r:ADJACENT]->(b:Family {id: $v}) DELETE r`

const upsertFamily = `MERGE (f:Family {id: $id})
	SET f.name = $name, f.size = $size, f.degree = $degree,
		f.members = $members, f.seq_ids = $seq_ids, f.gene_ids = $gene_ids,
		f.genome_ids = $genome_ids, f.centroids = $centroids,
		f.long_centroid_id = $long_centroid_id, f.lengths = $lengths,
		f.max_len_id = $max_len_id, f.annotation = $annotation,
		f.description = $description, f.dna = $dna, f.protein = $protein,
		f.has_end = $has_end, f.paralog = $paralog, f.merged_dna = $merged_dna,
		f.last_iteration = $last_iteration, f.run_id = $run_id`

// params converts a record into Kuzu statement parameters. Integer fields
// are widened to INT64.
func (n NodeRecord) params() map[string]any {
	p := n.fields()
	for k, v := range p {
		if i, ok := v.(int); ok {
			p[k] = int64(i)
		}
	}
	p["id"] = n.ID
	return p
}

// NodeField reads one property of a stored family.
func (k *Kuzu) NodeField(id, field string) (any, bool, error) {
	rows, err := k.query(fmt.Sprintf("MATCH (f:Family {id: $id}) RETURN f.%s", field), map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0][0], true, nil
}

// Counts returns the number of stored families and adjacencies.
func (k *Kuzu) Counts() (nodes, edges int64, err error) {
	rows, err := k.query("MATCH (f:Family) RETURN count(f)", nil)
	if err != nil {
		return 0, 0, err
	}
	nodes, _ = rows[0][0].(int64)
	rows, err = k.query("MATCH ()-[r:ADJACENT]->() RETURN count(r)", nil)
	if err != nil {
		return 0, 0, err
	}
	edges, _ = rows[0][0].(int64)
	return nodes, edges, nil
}

func (k *Kuzu) run(stmt string) error {
	res, err := k.conn.Query(stmt)
	if err != nil {
		return err
	}
	res.Close()
	return nil
}

// statementError is a statement that Kuzu rejected.
type statementError struct {
	op  string
	err error
}

func (e *statementError) Error() string { return e.op + ": " + e.err.Error() }
func (e *statementError) Unwrap() error { return e.err }

func (k *Kuzu) exec(cypher string, params map[string]any) error {
	stmt, err := k.conn.Prepare(cypher)
	if err != nil {
		return &statementError{op: "prepare", err: err}
	}
	defer stmt.Close()
	res, err := k.conn.Execute(stmt, params)
	if err != nil {
		return &statementError{op: "execute", err: err}
	}
	res.Close()
	return nil
}

func (k *Kuzu) query(cypher string, params map[string]any) ([][]any, error) {
	var (
		res *kuzu.QueryResult
		err error
	)
	if len(params) == 0 {
		res, err = k.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		if stmt, err = k.conn.Prepare(cypher); err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = k.conn.Execute(stmt, params)
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

// Close releases the connection and database.
func (k *Kuzu) Close() error {
	if k.conn != nil {
		k.conn.Close()
	}
	if k.db != nil {
		k.db.Close()
	}
	return nil
}

func openKuzu(path string) (Store, error) {
	return NewKuzu(path)
}
