package io

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// ===========================================================================
// Lexer
// ===========================================================================

type gmlTokenKind int

const (
	tokEOF gmlTokenKind = iota
	tokKey
	tokString
	tokNumber
	tokOpen
	tokClose
)

type gmlToken struct {
	kind gmlTokenKind
	text string
	line int
}

type gmlLexer struct {
	src  []byte
	pos  int
	line int
}

func (l *gmlLexer) next() (gmlToken, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return l.token()
		}
	}
	return gmlToken{kind: tokEOF, line: l.line}, nil
}

func (l *gmlLexer) token() (gmlToken, error) {
	start, c := l.pos, l.src[l.pos]
	switch {
	case c == '[':
		l.pos++
		return gmlToken{kind: tokOpen, line: l.line}, nil
	case c == ']':
		l.pos++
		return gmlToken{kind: tokClose, line: l.line}, nil
	case c == '"':
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			if l.src[l.pos] == '\n' {
				l.line++
			}
			l.pos++
		}
		if l.pos >= len(l.src) {
			return gmlToken{}, fmt.Errorf("line %d: unterminated string", l.line)
		}
		text := string(l.src[start+1 : l.pos])
		l.pos++
		return gmlToken{kind: tokString, text: html.UnescapeString(text), line: l.line}, nil
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		for l.pos < len(l.src) && strings.IndexByte("0123456789+-.eEINFinfa", l.src[l.pos]) >= 0 {
			l.pos++
		}
		return gmlToken{kind: tokNumber, text: string(l.src[start:l.pos]), line: l.line}, nil
	case isKeyStart(c):
		for l.pos < len(l.src) && (isKeyStart(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		return gmlToken{kind: tokKey, text: string(l.src[start:l.pos]), line: l.line}, nil
	}
	return gmlToken{}, fmt.Errorf("line %d: unexpected character %q", l.line, c)
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isKeyStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// ===========================================================================
// Parser
// ===========================================================================

type gmlValue struct {
	text   string
	list   []gmlPair
	isList bool
}

type gmlPair struct {
	key   string
	value gmlValue
}

func parseGML(src []byte) ([]gmlPair, error) {
	l := &gmlLexer{src: src, line: 1}
	return parseList(l, false)
}

func parseList(l *gmlLexer, nested bool) ([]gmlPair, error) {
	var out []gmlPair
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			if nested {
				return nil, fmt.Errorf("line %d: missing ']'", tok.line)
			}
			return out, nil
		case tokClose:
			if !nested {
				return nil, fmt.Errorf("line %d: unexpected ']'", tok.line)
			}
			return out, nil
		case tokKey:
		default:
			return nil, fmt.Errorf("line %d: expected key, got %q", tok.line, tok.text)
		}

		val, err := l.next()
		if err != nil {
			return nil, err
		}
		switch val.kind {
		case tokString, tokNumber:
			out = append(out, gmlPair{key: tok.text, value: gmlValue{text: val.text}})
		case tokOpen:
			list, err := parseList(l, true)
			if err != nil {
				return nil, err
			}
			out = append(out, gmlPair{key: tok.text, value: gmlValue{list: list, isList: true}})
		default:
			return nil, fmt.Errorf("line %d: key %q has no value", tok.line, tok.text)
		}
	}
}

// fields groups the scalar values of a GML list by key. GML repeats a key to
// express a list, so a single occurrence is a one-element list.
type fields map[string][]string

func collect(pairs []gmlPair) fields {
	f := fields{}
	for _, p := range pairs {
		if !p.value.isList {
			f[p.key] = append(f[p.key], p.value.text)
		}
	}
	return f
}

func (f fields) first(key string) string {
	if v := f[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// joined flattens values that pack several entries into one ';'-separated
// string, dropping empty entries.
func (f fields) joined(key string) []string {
	var out []string
	for _, v := range f[key] {
		for _, part := range strings.Split(v, ";") {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (f fields) ints(key string) ([]int, error) {
	var out []int
	for _, v := range f[key] {
		n, err := strconv.Atoi(v)
		if err != nil {
			fv, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return nil, fmt.Errorf("%s: %q is not an integer", key, v)
			}
			n = int(fv)
		}
		out = append(out, n)
	}
	return out, nil
}

func (f fields) flag(key string) bool {
	switch strings.ToLower(f.first(key)) {
	case "1", "true":
		return true
	}
	return false
}

// ===========================================================================
// Reading
// ===========================================================================

// ReadGML decodes a Panaroo-style GML pangenome graph.
//
// Nodes are keyed by their "label" (falling back to the numeric "id"). Edge
// "source" and "target" refer to numeric ids. Repeated keys become lists and
// ';'-joined strings (centroid, protein, dna, geneIDs, genomeIDs) are split.
// Derived fields (size, degrees) are ignored; they are recomputed on write.
func ReadGML(r io.Reader) (*pangraph.Graph, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	top, err := parseGML(src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	var body []gmlPair
	found := false
	for _, p := range top {
		if p.key == "graph" && p.value.isList {
			body, found = p.value.list, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("parse: no graph block")
	}

	g := pangraph.New()
	keys := make(map[string]string)
	for _, p := range body {
		switch {
		case p.key == "isolateNames" && !p.value.isList:
			g.Isolates = append(g.Isolates, p.value.text)
		case p.key == "node" && p.value.isList:
			f := collect(p.value.list)
			n, err := nodeFromFields(f)
			if err != nil {
				return nil, err
			}
			if err := g.AddNode(n); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
			keys[f.first("id")] = n.ID
		}
	}
	for _, p := range body {
		if p.key != "edge" || !p.value.isList {
			continue
		}
		f := collect(p.value.list)
		u, uok := keys[f.first("source")]
		v, vok := keys[f.first("target")]
		if !uok || !vok {
			return nil, fmt.Errorf("edge %s-%s: %w", f.first("source"), f.first("target"), pangraph.ErrUnknownNode)
		}
		if _, err := g.MergeEdge(u, v, pangraph.NewStringSet(f["members"]...)); err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", u, v, err)
		}
	}
	return g, nil
}

func nodeFromFields(f fields) (*pangraph.Node, error) {
	key := f.first("label")
	if key == "" {
		key = f.first("id")
	}
	if key == "" {
		return nil, fmt.Errorf("node without id or label: %w", pangraph.ErrInvalidNodeID)
	}
	lengths, err := f.ints("lengths")
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", key, err)
	}
	n := &pangraph.Node{
		ID:             key,
		Name:           f.first("name"),
		Members:        pangraph.NewStringSet(f["members"]...),
		SeqIDs:         pangraph.NewStringSet(f["seqIDs"]...),
		GeneIDs:        f.joined("geneIDs"),
		GenomeIDs:      f.joined("genomeIDs"),
		Centroid:       f.joined("centroid"),
		Lengths:        lengths,
		Protein:        f.joined("protein"),
		DNA:            f.joined("dna"),
		LongCentroidID: f["longCentroidID"],
		MaxLenID:       f.first("maxLenId"),
		Annotation:     f.first("annotation"),
		Description:    f.first("description"),
		HasEnd:         f.flag("hasEnd"),
		Paralog:        f.flag("paralog"),
		MergedDNA:      f.flag("mergedDNA"),
	}
	return n, nil
}

// ImportGML reads the GML file at path.
func ImportGML(path string) (*pangraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadGML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ===========================================================================
// Writing
// ===========================================================================

// WriteGML encodes g in the format ReadGML accepts. Nodes get consecutive
// numeric ids in graph order and are labelled with their key. Derived fields
// are refreshed from the graph: size, degrees, genomeIDs (members when no
// genome ids are recorded) and geneIDs.
func WriteGML(w io.Writer, g *pangraph.Graph) error {
	bw := bufio.NewWriter(w)
	gw := &gmlWriter{w: bw}

	gw.open("graph", 0)
	for _, iso := range g.Isolates {
		gw.str(1, "isolateNames", iso)
	}
	ids := make(map[string]int, g.NodeCount())
	for i, n := range g.Nodes() {
		ids[n.ID] = i
		gw.open("node", 1)
		gw.num(2, "id", i)
		gw.str(2, "label", n.ID)
		gw.str(2, "name", n.Name)
		gw.num(2, "size", n.Size())
		gw.str(2, "centroid", strings.Join(n.Centroid, ";"))
		gw.str(2, "maxLenId", n.MaxLenID)
		for _, m := range n.Members.Sorted() {
			gw.ident(2, "members", m)
		}
		for _, s := range n.SeqIDs.Sorted() {
			gw.ident(2, "seqIDs", s)
		}
		for _, l := range n.Lengths {
			gw.num(2, "lengths", l)
		}
		for _, l := range n.LongCentroidID {
			gw.ident(2, "longCentroidID", l)
		}
		genomes := n.GenomeIDs
		if len(genomes) == 0 {
			genomes = n.Members.Sorted()
		}
		gw.str(2, "genomeIDs", strings.Join(genomes, ";"))
		gw.str(2, "geneIDs", strings.Join(n.GeneIDs, ";"))
		gw.str(2, "protein", strings.Join(n.Protein, ";"))
		gw.str(2, "dna", strings.Join(n.DNA, ";"))
		gw.str(2, "annotation", n.Annotation)
		gw.str(2, "description", n.Description)
		gw.flag(2, "hasEnd", n.HasEnd)
		gw.flag(2, "paralog", n.Paralog)
		gw.flag(2, "mergedDNA", n.MergedDNA)
		gw.num(2, "degrees", n.Degree)
		gw.close(1)
	}
	for _, e := range g.Edges() {
		gw.open("edge", 1)
		gw.num(2, "source", ids[e.U])
		gw.num(2, "target", ids[e.V])
		gw.num(2, "size", e.Size())
		for _, m := range e.Members.Sorted() {
			gw.ident(2, "members", m)
		}
		gw.close(1)
	}
	gw.close(0)

	if gw.err != nil {
		return gw.err
	}
	return bw.Flush()
}

// ExportGML writes g to path atomically: the graph is written to a temporary
// file in the same directory and renamed over path.
func ExportGML(path string, g *pangraph.Graph) error {
	return writeAtomic(path, func(w io.Writer) error { return WriteGML(w, g) })
}

type gmlWriter struct {
	w   *bufio.Writer
	err error
}

func (gw *gmlWriter) line(indent int, s string) {
	if gw.err != nil {
		return
	}
	_, gw.err = fmt.Fprintf(gw.w, "%s%s\n", strings.Repeat("  ", indent), s)
}

func (gw *gmlWriter) open(key string, indent int) { gw.line(indent, key+" [") }
func (gw *gmlWriter) close(indent int)            { gw.line(indent, "]") }
func (gw *gmlWriter) num(indent int, key string, v int) {
	gw.line(indent, key+" "+strconv.Itoa(v))
}
func (gw *gmlWriter) str(indent int, key, v string) {
	gw.line(indent, key+" "+quoteGML(v))
}
func (gw *gmlWriter) flag(indent int, key string, v bool) {
	if v {
		gw.num(indent, key, 1)
	} else {
		gw.num(indent, key, 0)
	}
}

// ident writes integers bare and everything else quoted, matching how
// networkx serializes mixed integer and string identifiers.
func (gw *gmlWriter) ident(indent int, key, v string) {
	if _, err := strconv.Atoi(v); err == nil {
		gw.line(indent, key+" "+v)
		return
	}
	gw.str(indent, key, v)
}

func quoteGML(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '&':
			fmt.Fprintf(&b, "&#%d;", r)
		case r >= utf8.RuneSelf:
			fmt.Fprintf(&b, "&#%d;", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := fn(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
