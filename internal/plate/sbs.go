package plate

import (
	"strconv"

	"wellmap/pkg/geometry"
)

// SBS/ANSI microplate formats. All share the 127.76 x 85.48 mm nominal
// footprint; the measured values below are what the stage calibration uses.

// Plate96Spec returns the 96-well plate specification.
// Rows run H..A from the top of the stage image, so row index 0 is "H".
func Plate96Spec() *Spec {
	return &Spec{
		Name:          "96",
		Rows:          []string{"H", "G", "F", "E", "D", "C", "B", "A"},
		Cols:          numberedColumns(12),
		PlateWidthMM:  126.6,
		PlateHeightMM: 85.7,
		A1OffsetMM:    geometry.NewPoint2D(14.3, 11.36),
		WellSpacingUM: 9000.0, // 9 mm pitch
	}
}

func numberedColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = strconv.Itoa(i + 1)
	}
	return cols
}
