package position

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmap/internal/acquisition"
	"wellmap/pkg/geometry"
)

func ref(i int) *acquisition.PositionRef {
	return &acquisition.PositionRef{Index: acquisition.IntPtr(i)}
}

func TestExtractStageXY(t *testing.T) {
	loop := acquisition.Loop{Type: "XYPosLoop", Parameters: acquisition.LoopParameters{Points: []acquisition.StagePoint{
		{StagePositionUM: geometry.NewPoint2D(100, -200)},
		{StagePositionUM: geometry.NewPoint2D(-9000, 0)},
		{StagePositionUM: geometry.NewPoint2D(0, 4500.25)},
	}}}
	exps := []acquisition.Experiment{acquisition.Loop{Type: "TimeLoop"}, loop}

	table, err := ExtractStageXY(exps)
	require.NoError(t, err)
	assert.Equal(t, Table{
		0: {X: -100, Y: 200},
		1: {X: 9000, Y: 0},
		2: {X: 0, Y: -4500.25},
	}, table)
	assert.Equal(t, []int{0, 1, 2}, table.Indices())
	assert.Equal(t, geometry.NewPoint2D(9000, 0), table.Points()[1])
}

func TestExtractStageXYMissingLoop(t *testing.T) {
	_, err := ExtractStageXY([]acquisition.Experiment{acquisition.Loop{Type: "ZStackLoop"}})
	assert.ErrorIs(t, err, acquisition.ErrMissingPositionMetadata)

	_, err = ExtractStageXY(nil)
	assert.ErrorIs(t, err, acquisition.ErrMissingPositionMetadata)
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		fm     acquisition.FrameMetadata
		want   int
		source string
	}{
		{
			name:   "scene field wins",
			fm:     acquisition.FrameMetadata{Position: ref(3), Channels: []acquisition.ChannelMetadata{{Position: ref(5)}}},
			want:   3,
			source: "position.index",
		},
		{
			name:   "zero is a present value",
			fm:     acquisition.FrameMetadata{Position: ref(0), Channels: []acquisition.ChannelMetadata{{Position: ref(5)}}},
			want:   0,
			source: "position.index",
		},
		{
			name:   "first channel when scene field absent",
			fm:     acquisition.FrameMetadata{Position: &acquisition.PositionRef{}, Channels: []acquisition.ChannelMetadata{{Position: ref(5)}, {Position: ref(6)}}},
			want:   5,
			source: "channels[0].position.index",
		},
		{
			name:   "later channels are ignored",
			fm:     acquisition.FrameMetadata{Channels: []acquisition.ChannelMetadata{{}, {Position: ref(6)}}},
			want:   7,
			source: "scene",
		},
		{
			name:   "falls back to scene index",
			fm:     acquisition.FrameMetadata{},
			want:   7,
			source: "scene",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, source := Resolve(tt.fm, 7, DefaultLookups)
			assert.Equal(t, tt.want, idx)
			assert.Equal(t, tt.source, source)
		})
	}
}

type frames []acquisition.FrameMetadata

func (f frames) FrameMetadata(scene int) (acquisition.FrameMetadata, error) {
	if scene >= len(f) {
		return acquisition.FrameMetadata{}, acquisition.ErrSceneOutOfRange
	}
	return f[scene], nil
}

func TestMapScenesToPositions(t *testing.T) {
	src := frames{
		{Position: ref(1)},
		{Channels: []acquisition.ChannelMetadata{{Position: ref(1)}}},
		{},
		{Position: ref(0)},
	}

	mapping, err := MapScenesToPositions(src, len(src))
	require.NoError(t, err)
	assert.Equal(t, SceneIndex{0: 1, 1: 1, 2: 2, 3: 0}, mapping)
}

func TestMapScenesToPositionsPropagatesFrameErrors(t *testing.T) {
	_, err := MapScenesToPositions(frames{{}}, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, acquisition.ErrSceneOutOfRange))
	assert.Contains(t, err.Error(), "scene 1")
}

func TestMapScenesToPositionsNoScenes(t *testing.T) {
	mapping, err := MapScenesToPositions(frames{}, 0)
	require.NoError(t, err)
	assert.Empty(t, mapping)
}
