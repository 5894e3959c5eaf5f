package position

import (
	"fmt"

	"wellmap/internal/acquisition"
)

// SceneIndex maps a scene index to the position index it was acquired at.
// Several scenes may share a position.
type SceneIndex map[int]int

// FrameSource is the part of acquisition.Metadata the mapper reads.
type FrameSource interface {
	FrameMetadata(scene int) (acquisition.FrameMetadata, error)
}

// IndexLookup reads a position index from frame metadata. ok is false when
// the field is absent.
type IndexLookup struct {
	Name   string
	Lookup func(fm acquisition.FrameMetadata) (index int, ok bool)
}

// SceneField reads the position index attached to the scene itself.
var SceneField = IndexLookup{
	Name: "position.index",
	Lookup: func(fm acquisition.FrameMetadata) (int, bool) {
		return refIndex(fm.Position)
	},
}

// FirstChannelField reads the position index attached to the first channel.
var FirstChannelField = IndexLookup{
	Name: "channels[0].position.index",
	Lookup: func(fm acquisition.FrameMetadata) (int, bool) {
		if len(fm.Channels) == 0 {
			return 0, false
		}
		return refIndex(fm.Channels[0].Position)
	},
}

// DefaultLookups is the precedence used when a frame's position is resolved.
// When none yields a value the scene index itself is used, on the assumption
// that scenes were acquired in position order.
var DefaultLookups = []IndexLookup{SceneField, FirstChannelField}

func refIndex(ref *acquisition.PositionRef) (int, bool) {
	if ref == nil || ref.Index == nil {
		return 0, false
	}
	return *ref.Index, true
}

// Resolve returns the first index any lookup yields, and the lookup's name.
// With no match it returns the scene index and "scene".
func Resolve(fm acquisition.FrameMetadata, scene int, lookups []IndexLookup) (int, string) {
	for _, l := range lookups {
		if idx, ok := l.Lookup(fm); ok {
			return idx, l.Name
		}
	}
	return scene, "scene"
}

// MapScenesToPositions resolves the position index of scenes 0..numScenes-1
// using DefaultLookups.
func MapScenesToPositions(frames FrameSource, numScenes int) (SceneIndex, error) {
	mapping := make(SceneIndex, numScenes)
	for scene := 0; scene < numScenes; scene++ {
		fm, err := frames.FrameMetadata(scene)
		if err != nil {
			return nil, fmt.Errorf("frame metadata for scene %d: %w", scene, err)
		}
		mapping[scene], _ = Resolve(fm, scene, DefaultLookups)
	}
	return mapping, nil
}
