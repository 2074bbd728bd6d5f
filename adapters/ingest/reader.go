// Package ingest loads raw policy data into a frame and cleans it.
// Supported inputs are pipe-delimited .txt exports, .csv files and
// .xlsx workbooks (Sheet1). Column types are inferred from the values:
// a column where every non-missing cell parses as a number is numeric,
// everything else is categorical.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"insurisk/domain/core"
	"insurisk/domain/frame"
	apperrors "insurisk/internal/errors"
)

// Reader loads a tabular file into a frame
type Reader struct {
	path      string
	fileType  string // "txt", "csv" or "xlsx"
	delimiter rune

	// ConvertCSV writes a .csv copy next to a loaded .txt file
	ConvertCSV bool
}

// NewReader creates a reader for the given path. The delimiter applies
// to .txt inputs only; empty selects "|".
func NewReader(path, delimiter string) *Reader {
	fileType := "csv"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		fileType = "txt"
	case ".xlsx":
		fileType = "xlsx"
	}
	d := '|'
	if delimiter != "" {
		d = rune(delimiter[0])
	}
	return &Reader{path: path, fileType: fileType, delimiter: d}
}

// Read loads the file and converts it into a typed frame
func (r *Reader) Read() (*frame.Frame, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, apperrors.IOError(fmt.Sprintf("input file not found: %s", r.path), err)
	}

	var (
		records [][]string
		err     error
	)
	switch r.fileType {
	case "xlsx":
		records, err = r.readExcel()
	case "txt":
		records, err = r.readDelimited(r.delimiter)
	default:
		records, err = r.readDelimited(',')
	}
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: input needs a header row and at least one data row", core.ErrData)
	}

	if r.fileType == "txt" && r.ConvertCSV {
		if err := r.writeCSVCopy(records); err != nil {
			return nil, err
		}
	}

	f, err := buildFrame(records)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", r.path).Int("rows", f.Rows()).Int("columns", f.Width()).Msg("dataset loaded")
	return f, nil
}

func (r *Reader) readDelimited(comma rune) ([][]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, apperrors.IOError("open input file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(err, "parse delimited input")
	}
	return records, nil
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, apperrors.IOError("open workbook", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, apperrors.Wrap(err, "read Sheet1")
	}
	return rows, nil
}

// writeCSVCopy persists the loaded .txt next to the source as .csv so
// later runs can skip the slower delimiter handling
func (r *Reader) writeCSVCopy(records [][]string) error {
	csvPath := strings.TrimSuffix(r.path, filepath.Ext(r.path)) + ".csv"
	out, err := os.Create(csvPath)
	if err != nil {
		return apperrors.IOError("create csv copy", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.WriteAll(records); err != nil {
		return apperrors.IOError("write csv copy", err)
	}
	log.Info().Str("path", csvPath).Msg("csv copy written")
	return nil
}

// missingTokens are cell values treated as missing on ingest
var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, ".": true,
}

func isMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// buildFrame infers a type per column and assembles the frame. Ragged
// rows are padded with missing values.
func buildFrame(records [][]string) (*frame.Frame, error) {
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	data := records[1:]

	f := frame.New()
	for col, name := range headers {
		cells := make([]string, len(data))
		for row := range data {
			if col < len(data[row]) {
				cells[row] = strings.TrimSpace(data[row][col])
			}
		}

		if numeric, ok := tryNumeric(cells); ok {
			if err := f.AddNumeric(name, numeric); err != nil {
				return nil, err
			}
			continue
		}
		labels := make([]string, len(cells))
		for i, cell := range cells {
			if !isMissing(cell) {
				labels[i] = cell
			}
		}
		if err := f.AddCategorical(name, labels); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// tryNumeric parses a column as numeric; it succeeds only when every
// non-missing cell parses and at least one value is present
func tryNumeric(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	seen := false
	for i, cell := range cells {
		if isMissing(cell) {
			out[i] = nan()
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
		seen = true
	}
	return out, seen
}
