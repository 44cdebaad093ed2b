package ports

import (
	"gonum.org/v1/gonum/mat"
)

// MatrixReader loads a numeric data block from an external file. The header
// row, when present, is returned alongside the matrix.
type MatrixReader interface {
	ReadMatrix(path string) (*mat.Dense, []string, error)
}
