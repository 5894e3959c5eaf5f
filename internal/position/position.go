// Package position derives stage positions and scene-to-position indices
// from acquisition metadata.
package position

import (
	"fmt"
	"sort"

	"wellmap/internal/acquisition"
	"wellmap/pkg/geometry"
)

// Table maps a position index (acquisition order) to its plate coordinates in µm.
type Table map[int]geometry.Point2D

// Indices returns the table's position indices in ascending order.
func (t Table) Indices() []int {
	idx := make([]int, 0, len(t))
	for i := range t {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Points returns the coordinates ordered by position index.
func (t Table) Points() []geometry.Point2D {
	pts := make([]geometry.Point2D, 0, len(t))
	for _, i := range t.Indices() {
		pts = append(pts, t[i])
	}
	return pts
}

// ExtractStageXY returns the stage XY of every position in the position loop,
// negated into plate coordinates.
func ExtractStageXY(experiments []acquisition.Experiment) (Table, error) {
	points, err := acquisition.PositionLoopPoints(experiments)
	if err != nil {
		return nil, fmt.Errorf("unable to extract stage positions: %w", err)
	}
	table := make(Table, len(points))
	for i, p := range points {
		table[i] = p
	}
	return table, nil
}
