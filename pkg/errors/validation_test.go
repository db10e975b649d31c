package errors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateTablePath(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "stops.csv")
	upper := filepath.Join(dir, "STOPS.CSV")
	txt := filepath.Join(dir, "stops.txt")
	folder := filepath.Join(dir, "folder.csv")
	if err := os.Mkdir(folder, 0755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{csv, upper, txt} {
		if err := os.WriteFile(p, []byte("ID\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		path string
		code Code
	}{
		{"valid", csv, ""},
		{"upper-case extension", upper, ""},
		{"wrong extension", txt, ErrCodeInvalidFormat},
		{"missing", filepath.Join(dir, "nope.csv"), ErrCodeFileNotFound},
		{"empty", "", ErrCodeInvalidInput},
		{"control char", "a\x01.csv", ErrCodeInvalidInput},
		{"directory", folder, ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTablePath(tt.path, ".csv")
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateTablePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if !Is(err, tt.code) {
				t.Errorf("ValidateTablePath(%q) = %v, want code %s", tt.path, err, tt.code)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateOutputDir(dir); err != nil {
		t.Errorf("existing dir: %v", err)
	}

	nested := filepath.Join(dir, "a", "b")
	if err := ValidateOutputDir(nested); err != nil {
		t.Errorf("nested dir: %v", err)
	}
	if info, err := os.Stat(nested); err != nil || !info.IsDir() {
		t.Error("ValidateOutputDir should create missing directories")
	}

	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateOutputDir(file); err == nil {
		t.Error("file path should be rejected")
	}

	if err := ValidateOutputDir(""); err == nil {
		t.Error("empty path should be rejected")
	}
}
