package errors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateGraphPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "graph.gml")
	if err := os.WriteFile(file, []byte("graph []"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		code  Code
	}{
		{"regular file", file, ""},
		{"missing", filepath.Join(dir, "none.gml"), ErrCodeFileNotFound},
		{"directory", dir, ErrCodeInvalidPath},
		{"empty", "", ErrCodeInvalidPath},
		{"blank", "   ", ErrCodeInvalidPath},
		{"too long", strings.Repeat("a", 5000), ErrCodeInvalidPath},
		{"null byte", "graph\x00.gml", ErrCodeInvalidPath},
		{"newline", "graph\n.gml", ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGraphPath(tt.input)
			if got := GetCode(err); got != tt.code {
				t.Errorf("ValidateGraphPath(%q) code = %q, want %q (err %v)", tt.input, got, tt.code, err)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "taken")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"existing dir", dir, false},
		{"not yet created", filepath.Join(dir, "out"), false},
		{"existing file", file, true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateOutputDir(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	tests := []struct {
		v       float64
		wantErr bool
	}{
		{0.7, false},
		{1, false},
		{0.0001, false},
		{0, true},
		{-0.5, true},
		{1.01, true},
	}
	for _, tt := range tests {
		err := ValidateThreshold("family_threshold", tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateThreshold(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidConfig) {
			t.Errorf("ValidateThreshold(%v) code = %q", tt.v, GetCode(err))
		}
	}
}
