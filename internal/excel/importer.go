// Package excel turns spreadsheet rows into item-set descriptors.
package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/drill/internal/quiz"
)

// ImportConfig defines the import configuration.
//
// Column meaning depends on the kind:
//
//	default:       question, answers, id
//	numeric_range: question, answer, id
//	vocab:         word, translations, definition, example
//
// Multiple answers or translations in one cell are separated by ListSeparator.
type ImportConfig struct {
	FilePath       string    // Path to the Excel or CSV file
	SetName        string    // Defaults to the file name without extension
	Kind           quiz.Kind // default, numeric_range or vocab
	QuestionPrefix string
	Range          float64 // Relative tolerance for numeric_range sets
	Columns        []string
	SheetName      string // Name of the sheet to import
	StartRow       int    // The row to start importing from (1-based index)
	ListSeparator  string
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Kind:          quiz.KindDefault,
		Columns:       []string{"A", "B", "C", "D"},
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
		ListSeparator: ";",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Import reads an Excel or CSV file into a descriptor. Rows that cannot be
// turned into an item are skipped and reported in the result.
func Import(config ImportConfig) (quiz.Descriptor, *ImportResult, error) {
	if !config.Kind.Leaf() {
		return quiz.Descriptor{}, nil, fmt.Errorf("cannot import items of kind %q", config.Kind)
	}
	if config.SetName == "" {
		base := filepath.Base(config.FilePath)
		config.SetName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(config.FilePath), ".csv") {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return quiz.Descriptor{}, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	seen := make(map[string]struct{})
	var items []any

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 || blank(row) {
			continue
		}
		result.TotalProcessed++

		item, name, err := processRow(row, config)
		if err == nil {
			if _, dup := seen[name]; dup {
				err = fmt.Errorf("duplicate item %q", name)
			}
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		seen[name] = struct{}{}
		items = append(items, item)
		result.Created++
	}

	settings := quiz.Settings{QuestionPrefix: config.QuestionPrefix, Range: config.Range}
	d, err := quiz.NewDescriptor(config.SetName, config.Kind, settings, items...)
	if err != nil {
		return quiz.Descriptor{}, nil, err
	}
	return d, result, nil
}

// readExcel returns all rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow converts one row into an item payload and returns the item's name
func processRow(row []string, config ImportConfig) (any, string, error) {
	cell := func(n int) string {
		if n >= len(config.Columns) {
			return ""
		}
		if idx := columnToIndex(config.Columns[n]); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	switch config.Kind {
	case quiz.KindDefault:
		item := quiz.DefaultItem{Question: cell(0), Answers: splitList(cell(1), config.ListSeparator), ID: cell(2)}
		if item.Question == "" {
			return nil, "", errors.New("question cannot be empty")
		}
		if len(item.Answers) == 0 {
			return nil, "", errors.New("answer cannot be empty")
		}
		return item, firstNonEmpty(item.ID, item.Question), nil

	case quiz.KindNumericRange:
		item := quiz.NumericItem{Question: cell(0), ID: cell(2)}
		if item.Question == "" {
			return nil, "", errors.New("question cannot be empty")
		}
		answer, err := quiz.ParseSI(cell(1))
		if err != nil {
			return nil, "", err
		}
		item.Answer = answer
		return item, firstNonEmpty(item.ID, item.Question), nil

	case quiz.KindVocab:
		item := quiz.VocabItem{
			Word:         cleanWord(cell(0)),
			Translations: splitList(cell(1), config.ListSeparator),
			Definition:   cell(2),
			Example:      cell(3),
		}
		if item.Word == "" {
			return nil, "", errors.New("word cannot be empty")
		}
		if len(item.Translations) == 0 {
			return nil, "", errors.New("translation cannot be empty")
		}
		return item, item.Word, nil
	}
	return nil, "", fmt.Errorf("%w: %q", quiz.ErrUnknownKind, config.Kind)
}

// cleanWord drops trailing details in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func splitList(s, sep string) []string {
	if sep == "" {
		sep = ";"
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// columnToIndex converts a column letter ("A", "AB") to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
