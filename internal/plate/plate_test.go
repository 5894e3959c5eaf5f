package plate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmap/internal/acquisition"
	"wellmap/pkg/geometry"
)

func plate24() *Spec {
	return &Spec{
		Name:          "24",
		Rows:          []string{"D", "C", "B", "A"},
		Cols:          numberedColumns(6),
		PlateWidthMM:  127.76,
		PlateHeightMM: 85.48,
		A1OffsetMM:    geometry.NewPoint2D(17.05, 13.67),
		WellSpacingUM: 19300,
	}
}

func plate384() *Spec {
	rows := []string{"P", "O", "N", "M", "L", "K", "J", "I", "H", "G", "F", "E", "D", "C", "B", "A"}
	return &Spec{
		Name:          "384",
		Rows:          rows,
		Cols:          numberedColumns(24),
		PlateWidthMM:  127.76,
		PlateHeightMM: 85.48,
		A1OffsetMM:    geometry.NewPoint2D(12.13, 8.99),
		WellSpacingUM: 4500,
	}
}

func TestPlate96Spec(t *testing.T) {
	spec := Plate96Spec()
	require.NoError(t, spec.Validate())

	assert.Equal(t, 96, spec.WellCount())
	assert.Equal(t, "H", spec.Rows[0])
	assert.Equal(t, "A", spec.Rows[7])
	assert.Equal(t, "1", spec.Cols[0])
	assert.Equal(t, "12", spec.Cols[11])
	assert.Equal(t, geometry.NewSize(99000, 63000), spec.NominalExtent())
}

func TestGenerateGeometry96(t *testing.T) {
	wells := GenerateGeometry(Plate96Spec())
	require.Len(t, wells, 96)

	seen := make(map[string]bool)
	for _, w := range wells {
		assert.False(t, seen[w.Label()], "duplicate well %s", w.Label())
		seen[w.Label()] = true
	}

	// (14.3, 11.36) mm - (63.3, 42.85) mm
	first := wells[0]
	assert.Equal(t, "H", first.Row)
	assert.Equal(t, "1", first.Col)
	assert.Equal(t, -49000.0, first.CenterX())
	assert.Equal(t, -31490.0, first.CenterY())

	// Row-major: second well is the next column of the same row.
	assert.Equal(t, Well{Row: "H", Col: "2", Center: geometry.NewPoint2D(-40000, -31490)}, wells[1])
	assert.Equal(t, Well{Row: "G", Col: "1", Center: geometry.NewPoint2D(-49000, -22490)}, wells[12])

	last := wells[95]
	assert.Equal(t, "A12", last.Label())
	assert.Equal(t, geometry.NewPoint2D(50000, 31510), last.Center)
}

func TestGenerateGeometryIsReproducible(t *testing.T) {
	for _, spec := range []*Spec{Plate96Spec(), plate24(), plate384()} {
		assert.Equal(t, GenerateGeometry(spec), GenerateGeometry(spec), spec.Name)
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"no name", func(s *Spec) { s.Name = "" }},
		{"no rows", func(s *Spec) { s.Rows = nil }},
		{"count mismatch", func(s *Spec) { s.Cols = s.Cols[:11] }},
		{"duplicate row", func(s *Spec) { s.Rows[1] = "H" }},
		{"empty column", func(s *Spec) { s.Cols[3] = "" }},
		{"zero width", func(s *Spec) { s.PlateWidthMM = 0 }},
		{"zero spacing", func(s *Spec) { s.WellSpacingUM = 0 }},
		{"negative offset", func(s *Spec) { s.A1OffsetMM.X = -1 }},
		{"grid overflows", func(s *Spec) { s.A1OffsetMM.X = 30 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Plate96Spec()
			tt.mutate(spec)
			assert.Error(t, spec.Validate())
		})
	}

	named := plate24()
	named.Name = "custom-24"
	assert.NoError(t, named.Validate())
}

func TestSpecFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "384.json")
	require.NoError(t, plate384().SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, plate384(), loaded)
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	spec := plate24()
	spec.WellSpacingUM = -1
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, spec.SaveToFile(path))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid plate spec")
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"96"}, c.Names())

	spec, ok := c.Get("96")
	require.True(t, ok)
	assert.Equal(t, Plate96Spec(), spec)

	_, ok = c.Get("384")
	assert.False(t, ok)

	assert.Error(t, c.Register(Plate96Spec()), "duplicate name")
	assert.Error(t, c.Register(nil))
	require.NoError(t, c.Register(plate384()))
	require.NoError(t, c.Register(plate24()))
	assert.Equal(t, []string{"96", "384", "24"}, c.Names())

	var order []string
	for _, s := range c.Candidates() {
		order = append(order, s.Name)
	}
	assert.Equal(t, []string{"24", "96", "384"}, order)
}

func TestResolveBounds(t *testing.T) {
	c := DefaultCatalog()
	corner := func(x, y float64) []geometry.Point2D {
		return []geometry.Point2D{{X: -50000, Y: -30000}, {X: -50000 + x, Y: -30000 + y}}
	}

	tests := []struct {
		name   string
		points []geometry.Point2D
		ok     bool
	}{
		{"single position", []geometry.Point2D{{X: 5, Y: 5}}, true},
		{"nominal", corner(99000, 63000), true},
		{"at tolerance", corner(100000, 64000), true},
		{"x over tolerance", corner(100001, 0), false},
		{"y over tolerance", corner(0, 64001), false},
		{"both over", corner(150000, 100000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := c.Resolve(tt.points)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, "96", spec.Name)
				return
			}
			require.ErrorIs(t, err, ErrUnsupportedPlateGeometry)
			var gerr *UnsupportedGeometryError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, geometry.NewSize(99000, 63000), gerr.Expected)
			assert.Equal(t, geometry.Extent(tt.points), gerr.Observed)
			assert.Equal(t, "96", gerr.Plate)
		})
	}
}

func TestResolvePrefersSmallestCoveringPlate(t *testing.T) {
	c, err := NewCatalog(plate384(), Plate96Spec(), plate24())
	require.NoError(t, err)

	spec, err := c.Resolve([]geometry.Point2D{{X: 0, Y: 0}, {X: 90000, Y: 50000}})
	require.NoError(t, err)
	assert.Equal(t, "24", spec.Name)

	spec, err = c.Resolve([]geometry.Point2D{{X: 0, Y: 0}, {X: 98000, Y: 60000}})
	require.NoError(t, err)
	assert.Equal(t, "96", spec.Name)

	spec, err = c.Resolve([]geometry.Point2D{{X: 0, Y: 0}, {X: 104000, Y: 60000}})
	require.NoError(t, err)
	assert.Equal(t, "384", spec.Name)

	_, err = c.Resolve([]geometry.Point2D{{X: 0, Y: 0}, {X: 104501, Y: 0}})
	var gerr *UnsupportedGeometryError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "384", gerr.Plate)
	assert.Equal(t, geometry.NewSize(103500, 67500), gerr.Expected)
}

func TestResolveEmptyCatalog(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	_, err = c.Resolve([]geometry.Point2D{{X: 0, Y: 0}})
	require.ErrorIs(t, err, ErrUnsupportedPlateGeometry)
	assert.Contains(t, err.Error(), "no plate specs")
}

func TestResolveNoPositions(t *testing.T) {
	_, err := DefaultCatalog().Resolve(nil)
	assert.ErrorIs(t, err, acquisition.ErrMissingPositionMetadata)
}

func TestResolveExperiments(t *testing.T) {
	c := DefaultCatalog()

	_, err := c.ResolveExperiments(nil)
	assert.ErrorIs(t, err, acquisition.ErrMissingPositionMetadata)

	_, err = c.ResolveExperiments([]acquisition.Experiment{acquisition.Loop{Type: "TimeLoop"}})
	assert.ErrorIs(t, err, acquisition.ErrMissingPositionMetadata)

	loop := acquisition.Loop{Type: "XYPosLoop", Parameters: acquisition.LoopParameters{Points: []acquisition.StagePoint{
		{StagePositionUM: geometry.NewPoint2D(0, 0)},
		{StagePositionUM: geometry.NewPoint2D(-9000, -9000)},
	}}}
	spec, err := c.ResolveExperiments([]acquisition.Experiment{loop})
	require.NoError(t, err)
	assert.Equal(t, "96", spec.Name)

	loop.Parameters.Points[1].StagePositionUM = geometry.NewPoint2D(120000, 0)
	_, err = c.ResolveExperiments([]acquisition.Experiment{loop})
	assert.ErrorIs(t, err, ErrUnsupportedPlateGeometry)
}
