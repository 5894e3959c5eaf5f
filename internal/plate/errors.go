package plate

import (
	"errors"
	"fmt"

	"wellmap/pkg/geometry"
)

// ErrUnsupportedPlateGeometry is returned when observed stage extents do not
// fit any catalog plate.
var ErrUnsupportedPlateGeometry = errors.New("stage extents exceed supported plate geometry")

// UnsupportedGeometryError carries the extents that failed to resolve.
type UnsupportedGeometryError struct {
	Observed geometry.Size
	Expected geometry.Size // Nominal extent of the largest candidate
	Plate    string        // Name of the largest candidate, empty for an empty catalog
}

func (e *UnsupportedGeometryError) Error() string {
	if e.Plate == "" {
		return fmt.Sprintf("%v: observed extent≈%.0f×%.0f µm, no plate specs available",
			ErrUnsupportedPlateGeometry, e.Observed.Width, e.Observed.Height)
	}
	return fmt.Sprintf("%v: observed extent≈%.0f×%.0f µm vs expected %s-well max≈%.0f×%.0f µm",
		ErrUnsupportedPlateGeometry, e.Observed.Width, e.Observed.Height,
		e.Plate, e.Expected.Width, e.Expected.Height)
}

func (e *UnsupportedGeometryError) Unwrap() error {
	return ErrUnsupportedPlateGeometry
}
