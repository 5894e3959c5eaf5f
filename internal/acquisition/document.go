package acquisition

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSceneOutOfRange is returned for a frame lookup past the last scene.
var ErrSceneOutOfRange = errors.New("scene index out of range")

// LoopParameters holds the loop-kind specific settings.
type LoopParameters struct {
	Points []StagePoint `json:"points,omitempty"`
}

// Loop is an experiment loop as exported by a decoder's metadata dump.
type Loop struct {
	Type         string         `json:"type"`
	Count        int            `json:"count"`
	NestingLevel int            `json:"nestingLevel"`
	Parameters   LoopParameters `json:"parameters"`
}

func (l Loop) String() string {
	return fmt.Sprintf("%s(count=%d, nestingLevel=%d, points=%d)",
		l.Type, l.Count, l.NestingLevel, len(l.Parameters.Points))
}

// Points returns the loop's stage positions.
func (l Loop) Points() []StagePoint {
	return l.Parameters.Points
}

// Document is a JSON metadata dump of one acquisition file. It implements
// Metadata so a dump can stand in for the live decoder.
type Document struct {
	Source     string          `json:"source,omitempty"`
	SceneNames []string        `json:"scenes,omitempty"`
	Experiment []Loop          `json:"experiment"`
	Frames     []FrameMetadata `json:"frames"`
}

// Decode reads a Document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode metadata document: %w", err)
	}
	if len(doc.SceneNames) > 0 && len(doc.SceneNames) != len(doc.Frames) {
		return nil, fmt.Errorf("metadata document lists %d scene names for %d frames",
			len(doc.SceneNames), len(doc.Frames))
	}
	return &doc, nil
}

// LoadDocument reads a Document from a JSON file.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Source == "" {
		doc.Source = path
	}
	return doc, nil
}

// Experiments implements Metadata.
func (d *Document) Experiments() ([]Experiment, error) {
	exps := make([]Experiment, len(d.Experiment))
	for i := range d.Experiment {
		exps[i] = d.Experiment[i]
	}
	return exps, nil
}

// FrameMetadata implements Metadata.
func (d *Document) FrameMetadata(scene int) (FrameMetadata, error) {
	if scene < 0 || scene >= len(d.Frames) {
		return FrameMetadata{}, fmt.Errorf("%w: %d (scenes: %d)", ErrSceneOutOfRange, scene, len(d.Frames))
	}
	return d.Frames[scene], nil
}

// SceneCount implements Metadata.
func (d *Document) SceneCount() (int, error) {
	return len(d.Frames), nil
}

// SceneName returns the recorded name of a scene, or "XYPos:<n>" when the
// document carries none.
func (d *Document) SceneName(scene int) string {
	if scene >= 0 && scene < len(d.SceneNames) && strings.TrimSpace(d.SceneNames[scene]) != "" {
		return d.SceneNames[scene]
	}
	return fmt.Sprintf("XYPos:%d", scene)
}

// Opener returns an Opener that hands out this document.
func (d *Document) Opener() Opener {
	return func() (Metadata, error) { return d, nil }
}
