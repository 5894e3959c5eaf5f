package plate

import (
	"wellmap/pkg/geometry"
)

// Well is one physical well with its centre in µm, relative to the plate centre.
type Well struct {
	Row    string           `json:"row"`
	Col    string           `json:"col"`
	Center geometry.Point2D `json:"center"`
}

// CenterX returns the well centre's X coordinate.
func (w Well) CenterX() float64 { return w.Center.X }

// CenterY returns the well centre's Y coordinate.
func (w Well) CenterY() float64 { return w.Center.Y }

// Label returns the conventional well name, e.g. "E7".
func (w Well) Label() string { return w.Row + w.Col }

// GenerateGeometry lays out every well of spec centred on the plate origin,
// row-major in the spec's row and column order.
func GenerateGeometry(spec *Spec) []Well {
	a1 := spec.A1Center()
	wells := make([]Well, 0, spec.WellCount())

	for r, row := range spec.Rows {
		for c, col := range spec.Cols {
			step := geometry.NewPoint2D(float64(c)*spec.WellSpacingUM, float64(r)*spec.WellSpacingUM)
			wells = append(wells, Well{
				Row:    row,
				Col:    col,
				Center: a1.Add(step),
			})
		}
	}

	return wells
}
