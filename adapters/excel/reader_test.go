package excel

import (
	"os"
	"path/filepath"
	"testing"

	"plskit/internal/errors"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReadMatrix_CSVWithHeader(t *testing.T) {
	path := writeTemp(t, "data.csv", "alpha,beta\n1.5,2\n3,4.25\n")

	m, headers, err := NewDataReader().ReadMatrix(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headers) != 2 || headers[0] != "alpha" || headers[1] != "beta" {
		t.Errorf("headers = %v, want [alpha beta]", headers)
	}
	r, c := m.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", r, c)
	}
	if m.At(0, 0) != 1.5 || m.At(1, 1) != 4.25 {
		t.Errorf("wrong values: %g, %g", m.At(0, 0), m.At(1, 1))
	}
}

func TestReadMatrix_CSVWithoutHeader(t *testing.T) {
	path := writeTemp(t, "data.csv", "1,2\n3,4\n")

	m, headers, err := NewDataReader().ReadMatrix(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers != nil {
		t.Errorf("headers = %v, want nil for a numeric first row", headers)
	}
	if m.At(0, 0) != 1 || m.At(1, 1) != 4 {
		t.Errorf("wrong values: %g, %g", m.At(0, 0), m.At(1, 1))
	}
}

func TestReadMatrix_NonNumericCell(t *testing.T) {
	path := writeTemp(t, "data.csv", "1,2\n3,oops\n")

	_, _, err := NewDataReader().ReadMatrix(path)
	if err == nil {
		t.Fatal("expected error for non-numeric data cell")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestReadMatrix_HeaderOnly(t *testing.T) {
	path := writeTemp(t, "data.csv", "alpha,beta\n")

	if _, _, err := NewDataReader().ReadMatrix(path); err == nil {
		t.Error("expected error for a file with only a header row")
	}
}

func TestReadMatrix_MissingFile(t *testing.T) {
	_, _, err := NewDataReader().ReadMatrix(filepath.Join(t.TempDir(), "absent.csv"))
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeNotFound)
	}
}

func TestReadMatrix_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "data.txt", "1,2\n")

	_, _, err := NewDataReader().ReadMatrix(path)
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}
