package wellmap

import (
	"fmt"

	"wellmap/internal/acquisition"
	"wellmap/internal/plate"
	"wellmap/internal/position"
)

// Result is the full well inference for one file.
type Result struct {
	Plate          *plate.Spec
	Wells          []plate.Well
	Positions      position.Table
	ScenePositions position.SceneIndex
	Mapping        Mapping
}

// Resolver runs well inference against a plate catalog.
// It holds no per-file state and may be shared between goroutines.
type Resolver struct {
	catalog *plate.Catalog
}

// NewResolver creates a resolver over catalog. A nil catalog means
// plate.DefaultCatalog.
func NewResolver(catalog *plate.Catalog) *Resolver {
	if catalog == nil {
		catalog = plate.DefaultCatalog()
	}
	return &Resolver{catalog: catalog}
}

// Catalog returns the resolver's plate catalog.
func (r *Resolver) Catalog() *plate.Catalog {
	return r.catalog
}

// PlateGeometry resolves the plate used for md and lays out its wells.
func (r *Resolver) PlateGeometry(md acquisition.Metadata) (*plate.Spec, []plate.Well, error) {
	exps, err := md.Experiments()
	if err != nil {
		return nil, nil, fmt.Errorf("read experiments: %w", err)
	}
	spec, err := r.catalog.ResolveExperiments(exps)
	if err != nil {
		return nil, nil, err
	}
	return spec, plate.GenerateGeometry(spec), nil
}

// Analyze maps scenes 0..numScenes-1 of md to wells.
func (r *Resolver) Analyze(md acquisition.Metadata, numScenes int) (*Result, error) {
	spec, wells, err := r.PlateGeometry(md)
	if err != nil {
		return nil, err
	}
	exps, err := md.Experiments()
	if err != nil {
		return nil, fmt.Errorf("read experiments: %w", err)
	}
	positions, err := position.ExtractStageXY(exps)
	if err != nil {
		return nil, err
	}
	scenes, err := position.MapScenesToPositions(md, numScenes)
	if err != nil {
		return nil, err
	}
	mapping, err := MapScenesToWells(scenes, positions, wells)
	if err != nil {
		return nil, err
	}
	return &Result{
		Plate:          spec,
		Wells:          wells,
		Positions:      positions,
		ScenePositions: scenes,
		Mapping:        mapping,
	}, nil
}

// SceneToWellMapping maps scenes 0..numScenes-1 of md to wells.
func (r *Resolver) SceneToWellMapping(md acquisition.Metadata, numScenes int) (Mapping, error) {
	res, err := r.Analyze(md, numScenes)
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}

// ResolvePlateGeometry resolves md against the built-in catalog and returns
// the plate's wells.
func ResolvePlateGeometry(md acquisition.Metadata) ([]plate.Well, error) {
	_, wells, err := NewResolver(nil).PlateGeometry(md)
	return wells, err
}

// SceneToWellMapping maps scenes of md to wells using the built-in catalog.
func SceneToWellMapping(md acquisition.Metadata, numScenes int) (Mapping, error) {
	return NewResolver(nil).SceneToWellMapping(md, numScenes)
}
