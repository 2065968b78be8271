package oracle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	pio "github.com/matzehuels/pangenomerge/pkg/io"
	"github.com/matzehuels/pangenomerge/pkg/observability"
)

// Runner executes one tool invocation in dir.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) error
}

// ExecRunner runs a binary as a subprocess. Cancelling ctx kills it.
type ExecRunner struct {
	Binary string
}

// Run implements Runner. The error includes the tail of stderr.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tail := strings.TrimSpace(stderr.String())
		if len(tail) > 2048 {
			tail = tail[len(tail)-2048:]
		}
		if tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

// MMseqs searches with the MMseqs2 createdb/search/convertalis workflow in a
// scratch directory that is removed afterwards.
type MMseqs struct {
	Runner Runner
	// TmpDir is the parent of the scratch directory; empty uses os.TempDir.
	TmpDir string
	Logger *log.Logger
}

// DefaultMMseqsBinary is looked up on PATH.
const DefaultMMseqsBinary = "mmseqs"

// NewMMseqs returns an MMseqs oracle running binary.
func NewMMseqs(binary string, logger *log.Logger) *MMseqs {
	if binary == "" {
		binary = DefaultMMseqsBinary
	}
	return &MMseqs{Runner: ExecRunner{Binary: binary}, Logger: logger}
}

// Name implements Oracle.
func (m *MMseqs) Name() string { return "mmseqs" }

// Search implements Oracle.
func (m *MMseqs) Search(ctx context.Context, query, target []Sequence, p Params) (hits []Hit, err error) {
	if len(query) == 0 || len(target) == 0 {
		return nil, nil
	}
	start := time.Now()
	observability.Oracle().OnSearchStart(ctx, m.Name(), len(query), len(target))
	defer func() {
		observability.Oracle().OnSearchComplete(ctx, m.Name(), len(hits), time.Since(start), err)
	}()

	dir, err := os.MkdirTemp(m.TmpDir, "mmseqs-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "create scratch directory")
	}
	defer os.RemoveAll(dir)

	if err := writeSequences(filepath.Join(dir, "query.fa"), query); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "write query sequences")
	}
	if err := writeSequences(filepath.Join(dir, "target.fa"), target); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "write target sequences")
	}

	for _, step := range m.steps(p) {
		if m.Logger != nil {
			m.Logger.Debug("mmseqs", "step", step[0], "args", strings.Join(step[1:], " "))
		}
		if err := m.Runner.Run(ctx, dir, step...); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "mmseqs %s", step[0])
		}
	}

	f, err := os.Open(filepath.Join(dir, "result.tsv"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "read mmseqs results")
	}
	defer f.Close()
	all, err := ParseHits(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOracleFailed, err, "parse mmseqs results")
	}
	return filterIdentity(all, p.MinIdentity), nil
}

func (m *MMseqs) steps(p Params) [][]string {
	search := []string{"search", "queryDB", "targetDB", "resultDB", "tmp", "-a",
		"--min-seq-id", strconv.FormatFloat(p.MinIdentity, 'f', -1, 64)}
	if p.Coverage > 0 {
		search = append(search, "-c", strconv.FormatFloat(p.Coverage, 'f', -1, 64), "--cov-mode", "0")
	}
	if p.Sensitivity > 0 {
		search = append(search, "-s", strconv.FormatFloat(p.Sensitivity, 'f', -1, 64))
	}
	if p.Threads > 0 {
		search = append(search, "--threads", strconv.Itoa(p.Threads))
	}
	return [][]string{
		{"createdb", "query.fa", "queryDB"},
		{"createdb", "target.fa", "targetDB"},
		search,
		{"convertalis", "queryDB", "targetDB", "resultDB", "result.tsv",
			"--format-mode", "4", "--format-output", Columns},
	}
}

func writeSequences(path string, seqs []Sequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	records := make([]pio.Record, len(seqs))
	for i, s := range seqs {
		records[i] = pio.Record{ID: s.ID, Sequence: s.Residues}
	}
	if err := pio.WriteFASTA(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func filterIdentity(hits []Hit, minIdentity float64) []Hit {
	out := hits[:0]
	for _, h := range hits {
		if h.FIdent >= minIdentity {
			out = append(out, h)
		}
	}
	return out
}

var _ Oracle = (*MMseqs)(nil)
