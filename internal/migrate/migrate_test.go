package migrate

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cell-annotator/internal/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleMask = `[[0,0,0],[0,1,0],[0,0,0]]`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
}

func writeSimple(t *testing.T, dir, stem string) string {
	t.Helper()
	path := filepath.Join(dir, stem+container.Suffix)
	require.NoError(t, os.WriteFile(path, []byte(simpleMask), 0644))
	return path
}

func TestMigrateOne_ConvertsSimple(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cells.png"), 3, 3)
	path := writeSimple(t, dir, "cells")

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusConverted, res.Status)
	assert.Equal(t, 1, res.Instances)

	// The file is now a complete container
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	shape, rows, err := container.DetectShape(data)
	require.NoError(t, err)
	assert.Equal(t, container.ShapeComplete, shape)
	assert.Equal(t, uint16(1), rows[1][1])
}

func TestMigrateOne_PartialUpgraded(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cells.png"), 3, 3)
	path := filepath.Join(dir, "cells"+container.Suffix)
	require.NoError(t, os.WriteFile(path, []byte(`{"masks":`+simpleMask+`}`), 0644))

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusConverted, res.Status)
}

func TestMigrateOne_AlreadyComplete(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cells.png"), 3, 3)
	path := writeSimple(t, dir, "cells")
	require.Equal(t, StatusConverted, MigrateOne(path, Options{}).Status)

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusAlreadyComplete, res.Status)
	assert.Equal(t, 1, res.Instances)
}

func TestMigrateOne_NoSourceImage(t *testing.T) {
	dir := t.TempDir()
	path := writeSimple(t, dir, "orphan")

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusNoSourceImage, res.Status)

	// Untouched on disk
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, simpleMask, string(data))
}

func TestMigrateOne_UnknownFormat(t *testing.T) {
	// Decodes fine but carries no masks key
	dir := t.TempDir()
	path := filepath.Join(dir, "bad"+container.Suffix)
	require.NoError(t, os.WriteFile(path, []byte(`{"foo":1}`), 0644))

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusUnknownFormat, res.Status)
}

func TestMigrateOne_CorruptIsError(t *testing.T) {
	// Undecodable data is an error, not merely an unrecognized format
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt"+container.Suffix)
	require.NoError(t, os.WriteFile(path, []byte(`{{{`), 0644))

	res := MigrateOne(path, Options{})
	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestMigrateOne_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cells.png"), 3, 3)
	path := writeSimple(t, dir, "cells")

	res := MigrateOne(path, Options{DryRun: true})
	assert.Equal(t, StatusConverted, res.Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, simpleMask, string(data))
}

func TestMigrateOne_Backup(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cells.png"), 3, 3)
	path := writeSimple(t, dir, "cells")

	res := MigrateOne(path, Options{Backup: true})
	assert.Equal(t, StatusConverted, res.Status)

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, simpleMask, string(backup))
}

func TestScan_FindsContainersRecursively(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	writeSimple(t, dir, "a")
	writeSimple(t, sub, "b")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "._c"+container.Suffix), []byte(simpleMask), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{}`), 0644))

	paths, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a"+container.Suffix), paths[0])
	assert.Equal(t, filepath.Join(sub, "b"+container.Suffix), paths[1])
}

func TestRun_IsolatesPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "good.png"), 3, 3)
	writeSimple(t, dir, "good")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+container.Suffix), []byte(`{{`), 0644))

	rep, err := Run(dir, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Converted)
	assert.Equal(t, 1, rep.Errors)
	assert.Len(t, rep.Results, 2)
}

func TestRun_ProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 3, 3)
	writeSimple(t, dir, "a")
	writeSimple(t, dir, "orphan")

	var indices []int
	var statuses []Status
	rep, err := Run(dir, Options{}, func(i, n int, res Result) {
		assert.Equal(t, 2, n)
		indices = append(indices, i)
		statuses = append(statuses, res.Status)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, indices, "progress follows scan order")
	assert.Equal(t, []Status{StatusConverted, StatusNoSourceImage}, statuses)
	assert.Equal(t, 1, rep.Converted)
	assert.Equal(t, 1, rep.NoSourceImage)
}

func TestRun_MissingRoot(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "nope"), Options{}, nil)
	assert.Error(t, err)
}
