package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marzoText = "RIEPILOGO PRESENZE/ASSENZE - MARZO 2023\n" +
	"ROSSI MARIO - 012345\n" +
	"01 ME E 07:55 U 15:07 7.12 7.12 7.12\n" +
	"ORE LAVORATE 7.12\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "x")
	writeFile(t, dir, "a.PDF", "x")
	writeFile(t, dir, "notes.md", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	files, err := listInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.txt")}, files)

	single, err := listInputs(filepath.Join(dir, "notes.md"))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = listInputs(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRunParse_Directory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "bundles")
	writeFile(t, in, "marzo.txt", marzoText)
	writeFile(t, in, "copertina.txt", "RIEPILOGO PRESENZE/ASSENZE - MARZO 2023\nnessuna riga\n")

	var stdout bytes.Buffer
	err := runParse(context.Background(), parseOptions{input: in, out: out}, &stdout)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents failed")
	assert.Contains(t, stdout.String(), "copertina.txt: no day lines found\n")
	assert.Contains(t, stdout.String(), `marzo.txt: {"ore_lavorate":7.2}`)

	for _, name := range []string{"marzo.days.csv", "marzo.pairs.csv", "marzo.totals.json", "marzo.report.json"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "marzo.xlsx"))
	assert.NoFileExists(t, filepath.Join(out, "copertina.days.csv"))
}

func TestRunParse_SingleFileWithXLSX(t *testing.T) {
	in := writeFile(t, t.TempDir(), "marzo.txt", marzoText)
	out := t.TempDir()

	var stdout bytes.Buffer
	require.NoError(t, runParse(context.Background(), parseOptions{input: in, out: out, xlsx: true}, &stdout))
	assert.FileExists(t, filepath.Join(out, "marzo.xlsx"))
}

func TestRunParse_EmptyDirectory(t *testing.T) {
	err := runParse(context.Background(), parseOptions{input: t.TempDir(), out: t.TempDir()}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no .pdf or .txt files")
}
