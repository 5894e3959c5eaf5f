// Package acquisition models the metadata a microscopy file decoder exposes
// about how an acquisition was performed: its experiment loops, the stage
// positions visited, and per-scene frame metadata.
package acquisition

import (
	"errors"
	"fmt"
	"strings"

	"wellmap/pkg/geometry"
)

// PositionLoopMarker appears in the string form of the experiment loop that
// records the stage XY positions visited during imaging.
const PositionLoopMarker = "XYPosLoop"

// ErrMissingPositionMetadata is returned when an acquisition records no stage
// positions, so no well can be inferred.
var ErrMissingPositionMetadata = errors.New("acquisition does not contain XYPosLoop metadata")

// StagePoint is one entry of a position loop.
type StagePoint struct {
	Name            string           `json:"name,omitempty"`
	StagePositionUM geometry.Point2D `json:"stagePositionUm"`
}

// PhysicalXY returns the stage position in plate coordinates. The stage
// reports positions mirrored relative to the plate layout, so both axes are
// negated.
func (p StagePoint) PhysicalXY() geometry.Point2D {
	return p.StagePositionUM.Negate()
}

// Experiment is one acquisition loop (time, Z, XY position, ...).
type Experiment interface {
	fmt.Stringer
	// Points returns the stage positions of a position loop in acquisition
	// order. Other loop kinds return nil.
	Points() []StagePoint
}

// PositionRef carries an optional position index.
type PositionRef struct {
	Index *int `json:"index,omitempty"`
}

// ChannelMetadata is the per-channel part of a frame's metadata.
type ChannelMetadata struct {
	Name     string       `json:"name,omitempty"`
	Position *PositionRef `json:"position,omitempty"`
}

// FrameMetadata is the metadata attached to the first frame of a scene.
type FrameMetadata struct {
	Position *PositionRef      `json:"position,omitempty"`
	Channels []ChannelMetadata `json:"channels,omitempty"`
}

// Metadata is the read surface of an opened acquisition file.
type Metadata interface {
	Experiments() ([]Experiment, error)
	FrameMetadata(scene int) (FrameMetadata, error)
	SceneCount() (int, error)
}

// Opener opens a fresh metadata handle for one file.
type Opener func() (Metadata, error)

// FindPositionLoop returns the first experiment whose string form contains
// PositionLoopMarker.
func FindPositionLoop(experiments []Experiment) (Experiment, bool) {
	for _, exp := range experiments {
		if exp == nil {
			continue
		}
		if strings.Contains(exp.String(), PositionLoopMarker) {
			return exp, true
		}
	}
	return nil, false
}

// PositionLoopPoints locates the position loop and returns its points in
// plate coordinates, in acquisition order.
func PositionLoopPoints(experiments []Experiment) ([]geometry.Point2D, error) {
	loop, ok := FindPositionLoop(experiments)
	if !ok {
		return nil, ErrMissingPositionMetadata
	}
	raw := loop.Points()
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: position loop has no points", ErrMissingPositionMetadata)
	}
	points := make([]geometry.Point2D, len(raw))
	for i, p := range raw {
		points[i] = p.PhysicalXY()
	}
	return points, nil
}

// IntPtr returns a pointer to v. Handy for building FrameMetadata.
func IntPtr(v int) *int {
	return &v
}
