// Package excel loads numeric data blocks from Excel and CSV files into
// dense matrices.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"plskit/internal/errors"
	"plskit/ports"
)

// DataReader handles reading Excel and CSV files into matrices. Rows must be
// purely numeric after an optional header row; the header is detected by the
// first row failing to parse as numbers.
type DataReader struct{}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader() *DataReader {
	return &DataReader{}
}

// ReadMatrix reads the file at path into a dense matrix, returning column
// headers when the file has them (nil otherwise).
func (r *DataReader) ReadMatrix(path string) (*mat.Dense, []string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, errors.NotFound(fmt.Sprintf("data file %s", path))
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xlsm":
		rows, err = readExcelRows(path)
	default:
		return nil, nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)))
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.InvalidInput("data file has no rows")
	}

	return parseRows(rows)
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return rows, nil
}

// parseRows converts string rows into a matrix, peeling off a header row when
// the first row is not numeric.
func parseRows(rows [][]string) (*mat.Dense, []string, error) {
	var headers []string
	if !numericRow(rows[0]) {
		headers = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			headers[i] = strings.TrimSpace(h)
		}
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, nil, errors.InvalidInput("data file has a header but no data rows")
	}

	cols := len(rows[0])
	data := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, nil, errors.InvalidInput(fmt.Sprintf(
				"row %d has %d columns, expected %d", i+1, len(row), cols))
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, errors.InvalidInput(fmt.Sprintf(
					"row %d column %d is not numeric: %q", i+1, j+1, cell))
			}
			data.Set(i, j, v)
		}
	}
	return data, headers, nil
}

func numericRow(row []string) bool {
	for _, cell := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return false
		}
	}
	return len(row) > 0
}

var _ ports.MatrixReader = (*DataReader)(nil)
