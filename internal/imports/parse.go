package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"paytrack/internal/core"
)

// Column names recognised in the header row.
const (
	ColDate       = "date"
	ColHours      = "hours"
	ColHourlyRate = "hourly_rate"
	ColTag        = "tag"
	ColNotes      = "notes"
)

var requiredColumns = []string{ColDate, ColHours, ColHourlyRate}

// ReadTable loads the first sheet of an .xlsx file, or a .csv file, as rows of cells.
func ReadTable(path, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(path))
	}
	switch ext {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, core.NewValidationError("file", fmt.Sprintf("unsupported file type %q (use .xlsx or .csv)", ext))
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, core.NewValidationError("file", "could not read spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	// date cells come back as serial numbers when stored as dates
	dateCol := -1
	for i, h := range rows[0] {
		if normalizeHeader(h) == ColDate {
			dateCol = i
			break
		}
	}
	if dateCol >= 0 {
		for _, row := range rows[1:] {
			if dateCol < len(row) {
				row[dateCol] = serialToDate(row[dateCol])
			}
		}
	}
	return rows, nil
}

func serialToDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "-") {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.NewValidationError("file", fmt.Sprintf("malformed csv: %v", err))
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// columnIndex maps the known column names to their position in the header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, seen := idx[name]; !seen && name != "" {
			idx[name] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &core.MissingColumnsError{Columns: missing}
	}
	return idx, nil
}
