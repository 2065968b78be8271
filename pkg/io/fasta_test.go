package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

func TestFASTARoundTrip(t *testing.T) {
	long := strings.Repeat("ACGT", 40)
	records := []Record{{ID: "group_1", Sequence: "MKV"}, {ID: "group_2", Sequence: long}}

	var buf bytes.Buffer
	if err := WriteFASTA(&buf, records); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 2+1+3 {
		t.Errorf("unexpected wrapping:\n%s", buf.String())
	}
	back, err := ReadFASTA(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[0] != records[0] || back[1] != records[1] {
		t.Errorf("round trip = %+v", back)
	}
}

func TestReadFASTAErrors(t *testing.T) {
	for _, src := range []string{"ACGT\n>a\nAC\n", ">\nAC\n"} {
		if _, err := ReadFASTA(strings.NewReader(src)); err == nil {
			t.Errorf("ReadFASTA(%q) should fail", src)
		}
	}
}

func TestReferenceRecords(t *testing.T) {
	g := pangraph.New()
	_ = g.AddNode(&pangraph.Node{ID: "a", Protein: []string{"MK", "MKVL"}})
	_ = g.AddNode(&pangraph.Node{ID: "b"})
	_ = g.AddNode(&pangraph.Node{ID: "c", DNA: []string{"ATG"}})

	got := ReferenceRecords(g)
	want := []Record{{ID: "a", Sequence: "MKVL"}, {ID: "c", Sequence: "ATG"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ReferenceRecords = %+v", got)
	}
}
