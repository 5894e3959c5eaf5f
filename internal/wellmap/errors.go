package wellmap

import (
	"errors"
	"fmt"

	"wellmap/internal/acquisition"
	"wellmap/internal/plate"
)

// Failures surfaced by this package. All are fatal for well mapping; pixel
// access to the same file is unaffected.
var (
	ErrMissingPositionMetadata  = acquisition.ErrMissingPositionMetadata
	ErrUnsupportedPlateGeometry = plate.ErrUnsupportedPlateGeometry
	ErrPositionLookup           = errors.New("position index not in stage position table")
	ErrNoWells                  = errors.New("no wells to match against")
)

// PositionLookupError reports a scene whose position index has no stage
// coordinates, which means the metadata is inconsistent.
type PositionLookupError struct {
	Scene    int
	Position int
}

func (e *PositionLookupError) Error() string {
	return fmt.Sprintf("scene %d: %v: %d", e.Scene, ErrPositionLookup, e.Position)
}

func (e *PositionLookupError) Unwrap() error {
	return ErrPositionLookup
}
