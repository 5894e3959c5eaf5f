package plate

import (
	"fmt"

	"wellmap/internal/acquisition"
	"wellmap/pkg/geometry"
)

// ExtentToleranceUM is how far observed stage extents may exceed a plate's
// nominal extent and still match it. It absorbs stage positioning jitter.
// Empirical; the comparison is inclusive.
const ExtentToleranceUM = 1000.0

// Resolve picks the plate for a set of stage positions given in plate
// coordinates. Candidates are tried in Candidates order and the first whose
// nominal extent, grown by ExtentToleranceUM, covers the observed extent wins.
func (c *Catalog) Resolve(points []geometry.Point2D) (*Spec, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no stage positions", acquisition.ErrMissingPositionMetadata)
	}
	observed := geometry.Extent(points)

	candidates := c.Candidates()
	for _, spec := range candidates {
		if observed.Fits(spec.NominalExtent(), ExtentToleranceUM) {
			return spec, nil
		}
	}

	gerr := &UnsupportedGeometryError{Observed: observed}
	if n := len(candidates); n > 0 {
		largest := candidates[n-1]
		gerr.Expected = largest.NominalExtent()
		gerr.Plate = largest.Name
	}
	return nil, gerr
}

// ResolveExperiments locates the position loop in experiments and resolves
// its stage positions against the catalog.
func (c *Catalog) ResolveExperiments(experiments []acquisition.Experiment) (*Spec, error) {
	points, err := acquisition.PositionLoopPoints(experiments)
	if err != nil {
		return nil, fmt.Errorf("unable to determine plate geometry: %w", err)
	}
	return c.Resolve(points)
}
