package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	graphio "github.com/matzehuels/pangenomerge/pkg/io"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// Snapshot file names.
const (
	GraphFile     = "merged_graph.gml"
	ReferenceFile = "pan_genome_reference.fa"
	ReportFile    = "report.json"
)

// SnapshotWriter persists finished iterations and the final graph. An
// iteration is written in two steps: PrepareIteration stages every file, and
// the engine publishes the staged snapshot only after the metadata batch of
// the same iteration has committed.
type SnapshotWriter interface {
	PrepareIteration(ctx context.Context, it *Iteration, g *pangraph.Graph) (PendingSnapshot, error)
	WriteFinal(ctx context.Context, g *pangraph.Graph) error
}

// PendingSnapshot is a fully written snapshot that is not yet visible.
type PendingSnapshot interface {
	Publish() error
	Discard() error
}

// DirWriter writes snapshots below Root:
//
//	<root>/iteration_<n>/merged_graph.gml
//	<root>/iteration_<n>/pan_genome_reference.fa
//	<root>/iteration_<n>/report.json
//	<root>/merged_graph.gml
//
// An iteration directory is assembled under a temporary name and renamed
// into place, so a reader never observes a partial snapshot.
type DirWriter struct {
	Root string
}

var _ SnapshotWriter = (*DirWriter)(nil)

// NewDirWriter returns a DirWriter rooted at root.
func NewDirWriter(root string) *DirWriter {
	return &DirWriter{Root: root}
}

// IterationDir returns the directory of iteration n.
func (w *DirWriter) IterationDir(n int) string {
	return filepath.Join(w.Root, fmt.Sprintf("iteration_%d", n))
}

// PrepareIteration writes the snapshot of it into a hidden temporary
// directory below Root.
func (w *DirWriter) PrepareIteration(ctx context.Context, it *Iteration, g *pangraph.Graph) (_ PendingSnapshot, err error) {
	if err := errors.ValidateOutputDir(w.Root); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output dir")
	}
	tmp, err := os.MkdirTemp(w.Root, fmt.Sprintf(".iteration_%d-*", it.Index))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create snapshot dir")
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()

	if err := graphio.ExportGML(filepath.Join(tmp, GraphFile), g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write graph")
	}
	if err := graphio.ExportReference(filepath.Join(tmp, ReferenceFile), g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write reference")
	}
	data, err := json.MarshalIndent(it.Report, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode report")
	}
	if err := os.WriteFile(filepath.Join(tmp, ReportFile), data, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write report")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &dirSnapshot{tmp: tmp, dst: w.IterationDir(it.Index)}, nil
}

type dirSnapshot struct {
	tmp, dst string
}

// Publish renames the staged directory over any previous snapshot.
func (s *dirSnapshot) Publish() error {
	if err := os.RemoveAll(s.dst); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "replace %s", s.dst)
	}
	if err := os.Rename(s.tmp, s.dst); err != nil {
		os.RemoveAll(s.tmp)
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "publish %s", s.dst)
	}
	return nil
}

func (s *dirSnapshot) Discard() error { return os.RemoveAll(s.tmp) }

func (w *DirWriter) WriteFinal(_ context.Context, g *pangraph.Graph) error {
	if err := graphio.ExportGML(filepath.Join(w.Root, GraphFile), g); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write final graph")
	}
	return nil
}
