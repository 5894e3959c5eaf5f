// Package plate provides multiwell plate specifications, well geometry and
// plate inference from stage positions.
package plate

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"wellmap/pkg/geometry"
)

// Spec defines the physical and logical layout of a multiwell plate.
// Rows are listed in physical top-to-bottom order; row index 0 is the first
// entry. Specs are shared catalog data and must not be modified.
type Spec struct {
	Name          string           `json:"name"`
	Rows          []string         `json:"rows"`
	Cols          []string         `json:"cols"`
	PlateWidthMM  float64          `json:"plate_width_mm"`
	PlateHeightMM float64          `json:"plate_height_mm"`
	A1OffsetMM    geometry.Point2D `json:"a1_offset_mm"` // From the plate's top-left corner
	WellSpacingUM float64          `json:"well_spacing_um"`
}

// WellCount returns the number of wells on the plate.
func (s *Spec) WellCount() int {
	return len(s.Rows) * len(s.Cols)
}

// NominalExtent returns the distance between the outermost well centres on
// each axis, in µm.
func (s *Spec) NominalExtent() geometry.Size {
	return geometry.Size{
		Width:  float64(len(s.Cols)-1) * s.WellSpacingUM,
		Height: float64(len(s.Rows)-1) * s.WellSpacingUM,
	}
}

// Center returns the physical centre of the plate footprint in µm, measured
// from the top-left corner.
func (s *Spec) Center() geometry.Point2D {
	return geometry.NewPoint2D(s.PlateWidthMM/2, s.PlateHeightMM/2).Scale(1000)
}

// A1Center returns the centre of the first well relative to the plate centre, in µm.
func (s *Spec) A1Center() geometry.Point2D {
	return s.A1OffsetMM.Scale(1000).Sub(s.Center())
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s-well (%dx%d, %.0f µm pitch)", s.Name, len(s.Rows), len(s.Cols), s.WellSpacingUM)
}

// Validate checks the spec for internal consistency.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("plate spec name is required")
	}
	if len(s.Rows) == 0 || len(s.Cols) == 0 {
		return fmt.Errorf("plate %s: rows and columns are required", s.Name)
	}
	if n, err := strconv.Atoi(s.Name); err == nil && n != s.WellCount() {
		return fmt.Errorf("plate %s: %d rows x %d columns is %d wells",
			s.Name, len(s.Rows), len(s.Cols), s.WellCount())
	}
	if err := uniqueLabels("row", s.Rows); err != nil {
		return fmt.Errorf("plate %s: %w", s.Name, err)
	}
	if err := uniqueLabels("column", s.Cols); err != nil {
		return fmt.Errorf("plate %s: %w", s.Name, err)
	}
	if s.PlateWidthMM <= 0 || s.PlateHeightMM <= 0 {
		return fmt.Errorf("plate %s: dimensions must be positive", s.Name)
	}
	if s.WellSpacingUM <= 0 {
		return fmt.Errorf("plate %s: well spacing must be positive", s.Name)
	}
	if s.A1OffsetMM.X < 0 || s.A1OffsetMM.Y < 0 {
		return fmt.Errorf("plate %s: A1 offset must not be negative", s.Name)
	}
	grid := s.NominalExtent()
	if s.A1OffsetMM.X+grid.Width/1000 > s.PlateWidthMM || s.A1OffsetMM.Y+grid.Height/1000 > s.PlateHeightMM {
		return fmt.Errorf("plate %s: well grid does not fit the %.1fx%.1f mm footprint",
			s.Name, s.PlateWidthMM, s.PlateHeightMM)
	}
	return nil
}

func uniqueLabels(kind string, labels []string) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return fmt.Errorf("empty %s label", kind)
		}
		if seen[l] {
			return fmt.Errorf("duplicate %s label %q", kind, l)
		}
		seen[l] = true
	}
	return nil
}

// SaveToFile saves the spec to a JSON file.
func (s *Spec) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads a spec from a JSON file.
func LoadFromFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plate spec: %w", err)
	}

	return &spec, nil
}
