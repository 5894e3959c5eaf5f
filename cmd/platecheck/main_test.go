package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmap/internal/config"
	"wellmap/internal/plate"
)

func TestListCatalog(t *testing.T) {
	var buf bytes.Buffer
	listCatalog(&buf, plate.DefaultCatalog())

	out := buf.String()
	assert.Contains(t, out, "96-well (8x12, 9000 µm pitch)")
	assert.Contains(t, out, "A1 at (-49000, -31490) µm")
	assert.Contains(t, out, "up to 100000 x 64000 µm")
}

func TestWriteGeometry(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeGeometry(&buf, plate.Plate96Spec()))

	var got struct {
		Plate string       `json:"plate"`
		Wells []plate.Well `json:"wells"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "96", got.Plate)
	require.Len(t, got.Wells, 96)
	assert.Equal(t, plate.GenerateGeometry(plate.Plate96Spec()), got.Wells)
}

func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "96.json")
	require.NoError(t, plate.Plate96Spec().SaveToFile(good))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"6","rows":["A"],"cols":["1"]}`), 0o644))

	var buf bytes.Buffer
	assert.Equal(t, 1, validateFiles(&buf, []string{good, bad}))
	assert.Contains(t, buf.String(), good+": OK, 96-well")
	assert.Contains(t, buf.String(), bad+": invalid plate spec")
}

func TestPlatesFlagExtendsCatalog(t *testing.T) {
	dir := t.TempDir()
	spec := plate.Plate96Spec()
	spec.Name = "96-deep"
	path := filepath.Join(dir, "96-deep.json")
	require.NoError(t, spec.SaveToFile(path))

	var plates stringList
	require.NoError(t, plates.Set(path))
	catalog, err := config.Config{PlateFiles: plates}.Catalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"96", "96-deep"}, catalog.Names())

	var buf bytes.Buffer
	listCatalog(&buf, catalog)
	assert.Contains(t, buf.String(), "96-deep")

	dup := filepath.Join(dir, "96.json")
	require.NoError(t, plate.Plate96Spec().SaveToFile(dup))
	require.NoError(t, plates.Set(dup))
	_, err = config.Config{PlateFiles: plates}.Catalog()
	assert.ErrorContains(t, err, "already registered")
}

func TestRenderPlate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "96.tif")
	require.NoError(t, renderPlate(path, plate.Plate96Spec()))
	assert.FileExists(t, path)
}
