package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/drill/internal/quiz"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "capitals.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportExcelDefaultItems(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Question", "Answers", "ID"},
		{"France", "Paris", "fr"},
		{"Germany", "Berlin; Bonn", ""},
		{"", "Nowhere", ""},
		{"Spain", "", ""},
		{"France", "Paris", "fr"},
	})

	config := DefaultImportConfig()
	config.FilePath = path
	config.QuestionPrefix = "Capital of "

	d, result, err := Import(config)
	require.NoError(t, err)

	assert.Equal(t, "capitals", d.Name)
	assert.Equal(t, quiz.KindDefault, d.Kind)
	assert.Equal(t, "Capital of ", d.Settings.QuestionPrefix)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Errors, 3)

	entries, err := d.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fr", entries[0].Name)
	assert.Equal(t, "Germany", entries[1].Name)

	q, err := quiz.Build(d.Kind, d.Settings, entries[1].Data)
	require.NoError(t, err)
	assert.Equal(t, "Capital of Germany?", q.Prompt)
	assert.Equal(t, []string{"Berlin", "Bonn"}, q.Answers)
}

func TestImportCSVVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verbs.csv")
	content := "word,translations,definition,example\n" +
		"go (went; gone),gehen,to move,I go home.\n" +
		",,,\n" +
		"run,laufen;rennen,to move fast,Run!\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := DefaultImportConfig()
	config.FilePath = path
	config.Kind = quiz.KindVocab

	d, result, err := Import(config)
	require.NoError(t, err)
	assert.Equal(t, "verbs", d.Name)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)

	entries, err := d.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "go", entries[0].Name)

	q, err := quiz.Build(d.Kind, d.Settings, entries[1].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"laufen", "rennen"}, q.Translations)
	assert.Equal(t, "Run!", q.Example)
}

func TestImportNumeric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heights.csv")
	require.NoError(t, os.WriteFile(path, []byte("q,a\nEverest,8.8k\nK2,tall\n"), 0o644))

	config := DefaultImportConfig()
	config.FilePath = path
	config.SetName = "mountains"
	config.Kind = quiz.KindNumericRange
	config.Range = 0.1

	d, result, err := Import(config)
	require.NoError(t, err)
	assert.Equal(t, "mountains", d.Name)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0.1, d.Settings.Range)
}

func TestImportRejectsUnion(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = "x.csv"
	config.Kind = quiz.KindUnion

	_, _, err := Import(config)
	assert.Error(t, err)
}

func TestImportMissingFile(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")

	_, _, err := Import(config)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 2, columnToIndex("c"))
	assert.Equal(t, 27, columnToIndex("AB"))
	assert.Equal(t, -1, columnToIndex("1"))
}
