// Package grid reads pre-extracted table grids from JSON, CSV and XLSX files.
package grid

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"vidalaboral/internal/domain"
)

// Load decodes a grid file, choosing the format from the file extension.
//
//   - .json: an array of pages ([][][]string), a single page ([][]string),
//     or an object {"pages": [...]}
//   - .csv:  one page; a line holding only "---" starts a new page
//   - .xlsx: one page per worksheet, in workbook order
func Load(name string, data []byte) ([]domain.Page, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	var (
		pages []domain.Page
		err   error
	)
	switch domain.AllowedExtensions[ext] {
	case domain.FileTypeJSON:
		pages, err = LoadJSON(data)
	case domain.FileTypeCSV:
		pages, err = LoadCSV(data)
	case domain.FileTypeXLSX:
		pages, err = LoadXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q is not a grid file", domain.ErrUnsupportedFileType, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidGrid, name, err)
	}
	return pages, nil
}

// LoadJSON decodes pages from JSON. Non-string cells (numbers, null) are
// rendered as text so that a grid dumped by another tool still loads.
func LoadJSON(data []byte) ([]domain.Page, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if data[0] == '{' {
		var wrapped struct {
			Pages []json.RawMessage `json:"pages"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		pages := make([]domain.Page, 0, len(wrapped.Pages))
		for i, raw := range wrapped.Pages {
			page, err := decodePage(raw)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i+1, err)
			}
			pages = append(pages, page)
		}
		return pages, nil
	}

	var outer []json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, err
	}
	if len(outer) == 0 {
		return []domain.Page{}, nil
	}

	// A single page is an array of rows whose first element is a row of
	// scalars; a list of pages nests one level deeper.
	if isPage(outer) {
		page, err := decodePage(data)
		if err != nil {
			return nil, err
		}
		return []domain.Page{page}, nil
	}

	pages := make([]domain.Page, 0, len(outer))
	for i, raw := range outer {
		page, err := decodePage(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func isPage(rows []json.RawMessage) bool {
	for _, r := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(r, &cells); err != nil {
			return false
		}
		if len(cells) == 0 {
			continue
		}
		c := bytes.TrimSpace(cells[0])
		return len(c) == 0 || c[0] != '['
	}
	return true
}

func decodePage(raw json.RawMessage) (domain.Page, error) {
	var rows [][]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	page := make(domain.Page, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cellText(v)
		}
		page = append(page, cells)
	}
	return page, nil
}

func cellText(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		if c == float64(int64(c)) {
			return fmt.Sprintf("%d", int64(c))
		}
		return fmt.Sprintf("%g", c)
	default:
		return fmt.Sprint(c)
	}
}

const pageBreak = "---"

// LoadCSV reads comma-separated rows. Rows may have different lengths.
func LoadCSV(data []byte) ([]domain.Page, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	pages := []domain.Page{{}}
	for _, row := range rows {
		if len(row) == 1 && strings.TrimSpace(row[0]) == pageBreak {
			pages = append(pages, domain.Page{})
			continue
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], row)
	}
	return pages, nil
}

// LoadXLSX reads every worksheet as a page.
func LoadXLSX(data []byte) ([]domain.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	pages := make([]domain.Page, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		pages = append(pages, domain.Page(rows))
	}
	return pages, nil
}
