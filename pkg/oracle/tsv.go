package oracle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Columns is the alignment format requested from search tools.
const Columns = "query,target,fident,alnlen,qlen,tlen,evalue"

// ParseHits reads tab-separated alignment rows in Columns order. A header
// row starting with "query" is skipped, as are blank lines.
func ParseHits(r io.Reader) ([]Hit, error) {
	var hits []Hit
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || (line == 1 && strings.HasPrefix(text, "query\t")) {
			continue
		}
		f := strings.Split(text, "\t")
		if len(f) < 7 {
			return nil, fmt.Errorf("line %d: want 7 columns, got %d", line, len(f))
		}
		h := Hit{Query: f[0], Target: f[1]}
		var err error
		if h.FIdent, err = strconv.ParseFloat(f[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: fident: %w", line, err)
		}
		if h.AlnLen, err = strconv.Atoi(f[3]); err != nil {
			return nil, fmt.Errorf("line %d: alnlen: %w", line, err)
		}
		if h.QLen, err = strconv.Atoi(f[4]); err != nil {
			return nil, fmt.Errorf("line %d: qlen: %w", line, err)
		}
		if h.TLen, err = strconv.Atoi(f[5]); err != nil {
			return nil, fmt.Errorf("line %d: tlen: %w", line, err)
		}
		if h.EValue, err = strconv.ParseFloat(f[6], 64); err != nil {
			return nil, fmt.Errorf("line %d: evalue: %w", line, err)
		}
		hits = append(hits, h)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// WriteHits writes hits as tab-separated rows with a header.
func WriteHits(w io.Writer, hits []Hit) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, strings.ReplaceAll(Columns, ",", "\t"))
	for _, h := range hits {
		fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			h.Query, h.Target, strconv.FormatFloat(h.FIdent, 'g', -1, 64),
			h.AlnLen, h.QLen, h.TLen, strconv.FormatFloat(h.EValue, 'g', -1, 64))
	}
	return bw.Flush()
}
