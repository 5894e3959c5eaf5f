// Package wellmap assigns acquired scenes to the wells of a multiwell plate.
package wellmap

import (
	"sort"

	"wellmap/internal/plate"
	"wellmap/internal/position"
	"wellmap/pkg/geometry"
)

// WellPosition identifies a well by row and column label.
type WellPosition struct {
	Row string `json:"row"`
	Col string `json:"col"`
}

func (w WellPosition) String() string {
	return w.Row + w.Col
}

// Mapping maps a scene index to its well.
type Mapping map[int]WellPosition

// Scenes returns the mapped scene indices in ascending order.
func (m Mapping) Scenes() []int {
	scenes := make([]int, 0, len(m))
	for s := range m {
		scenes = append(scenes, s)
	}
	sort.Ints(scenes)
	return scenes
}

// ClosestWellIndex returns the index in wells of the well whose centre is
// nearest p, or -1 when wells is empty. On equal distances the earlier well
// wins.
func ClosestWellIndex(p geometry.Point2D, wells []plate.Well) int {
	best := -1
	var bestDist float64
	for i, w := range wells {
		d := p.SquaredDistance(w.Center)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// FindClosestWell returns the well whose centre is nearest the stage
// position (x, y). Ties go to the well listed first.
func FindClosestWell(x, y float64, wells []plate.Well) (WellPosition, error) {
	i := ClosestWellIndex(geometry.NewPoint2D(x, y), wells)
	if i < 0 {
		return WellPosition{}, ErrNoWells
	}
	return WellPosition{Row: wells[i].Row, Col: wells[i].Col}, nil
}

// MapScenesToWells looks up each scene's position, then its stage
// coordinates, then the nearest well.
func MapScenesToWells(scenes position.SceneIndex, positions position.Table, wells []plate.Well) (Mapping, error) {
	if len(wells) == 0 {
		return nil, ErrNoWells
	}
	order := make([]int, 0, len(scenes))
	for scene := range scenes {
		order = append(order, scene)
	}
	sort.Ints(order)

	mapping := make(Mapping, len(scenes))
	for _, scene := range order {
		pos := scenes[scene]
		xy, ok := positions[pos]
		if !ok {
			return nil, &PositionLookupError{Scene: scene, Position: pos}
		}
		w, err := FindClosestWell(xy.X, xy.Y, wells)
		if err != nil {
			return nil, err
		}
		mapping[scene] = w
	}
	return mapping, nil
}
