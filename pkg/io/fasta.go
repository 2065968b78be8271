package io

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// Record is one FASTA entry.
type Record struct {
	ID       string
	Sequence string
}

const fastaLineWidth = 60

// WriteFASTA writes records wrapped at 60 residues per line.
func WriteFASTA(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, ">%s\n", r.ID); err != nil {
			return err
		}
		for s := r.Sequence; len(s) > 0; {
			n := min(len(s), fastaLineWidth)
			if _, err := fmt.Fprintln(bw, s[:n]); err != nil {
				return err
			}
			s = s[n:]
		}
	}
	return bw.Flush()
}

// ReadFASTA parses FASTA records. The id is the header up to the first
// whitespace; sequence lines are concatenated.
func ReadFASTA(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	var seq strings.Builder
	flush := func() {
		if len(out) > 0 {
			out[len(out)-1].Sequence = seq.String()
		}
		seq.Reset()
	}
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		switch {
		case text == "":
		case strings.HasPrefix(text, ">"):
			flush()
			header := strings.Fields(text[1:])
			if len(header) == 0 {
				return nil, fmt.Errorf("line %d: empty FASTA header", line)
			}
			out = append(out, Record{ID: header[0]})
		default:
			if len(out) == 0 {
				return nil, fmt.Errorf("line %d: sequence before first header", line)
			}
			seq.WriteString(text)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// ReferenceRecords returns one representative sequence per node, keyed by
// node id, in graph order. Nodes without any sequence are skipped.
func ReferenceRecords(g *pangraph.Graph) []Record {
	out := make([]Record, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		if rep := n.Representative(); rep != "" {
			out = append(out, Record{ID: n.ID, Sequence: rep})
		}
	}
	return out
}

// ExportReference writes the reference FASTA of g to path atomically.
func ExportReference(path string, g *pangraph.Graph) error {
	return writeAtomic(path, func(w io.Writer) error { return WriteFASTA(w, ReferenceRecords(g)) })
}
