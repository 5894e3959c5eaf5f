package acquisition

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmap/pkg/geometry"
)

const sampleDoc = `{
  "scenes": ["point name 1", ""],
  "experiment": [
    {"type": "TimeLoop", "count": 3},
    {"type": "XYPosLoop", "count": 2, "parameters": {"points": [
      {"name": "point name 1", "stagePositionUm": {"x": 1200.5, "y": -300}},
      {"stagePositionUm": {"x": -9000, "y": 0}}
    ]}}
  ],
  "frames": [
    {"position": {"index": 1}},
    {"channels": [{"name": "Brightfield", "position": {"index": 0}}]}
  ]
}`

func TestDecodeDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	n, err := doc.SceneCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "point name 1", doc.SceneName(0))
	assert.Equal(t, "XYPos:1", doc.SceneName(1))

	fm, err := doc.FrameMetadata(0)
	require.NoError(t, err)
	require.NotNil(t, fm.Position)
	assert.Equal(t, 1, *fm.Position.Index)

	fm, err = doc.FrameMetadata(1)
	require.NoError(t, err)
	assert.Nil(t, fm.Position)
	require.Len(t, fm.Channels, 1)
	assert.Equal(t, 0, *fm.Channels[0].Position.Index)

	_, err = doc.FrameMetadata(2)
	assert.ErrorIs(t, err, ErrSceneOutOfRange)
}

func TestDecodeRejectsSceneNameMismatch(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"scenes":["a","b"],"frames":[{}]}`))
	assert.Error(t, err)
}

func TestPositionLoopPointsNegatesStageCoordinates(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	exps, err := doc.Experiments()
	require.NoError(t, err)

	pts, err := PositionLoopPoints(exps)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{{X: -1200.5, Y: 300}, {X: 9000, Y: 0}}, pts)
}

func TestFindPositionLoopUsesStringForm(t *testing.T) {
	exps := []Experiment{Loop{Type: "ZStackLoop"}, nil, Loop{Type: "XYPosLoop"}}
	loop, ok := FindPositionLoop(exps)
	require.True(t, ok)
	assert.Contains(t, loop.String(), PositionLoopMarker)

	_, ok = FindPositionLoop([]Experiment{Loop{Type: "TimeLoop"}})
	assert.False(t, ok)
}

func TestPositionLoopPointsMissing(t *testing.T) {
	_, err := PositionLoopPoints(nil)
	assert.True(t, errors.Is(err, ErrMissingPositionMetadata))

	_, err = PositionLoopPoints([]Experiment{Loop{Type: "XYPosLoop"}})
	assert.ErrorIs(t, err, ErrMissingPositionMetadata)
}

func TestLoadDocumentSetsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	md, err := doc.Opener()()
	require.NoError(t, err)
	assert.Same(t, doc, md)
}
