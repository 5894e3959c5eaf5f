package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"wellmap/pkg/geometry"
)

// SceneReport is one scene's row in a report.
type SceneReport struct {
	Scene    int     `json:"scene"`
	Name     string  `json:"name"`
	Position int     `json:"position"`
	XUM      float64 `json:"x_um"`
	YUM      float64 `json:"y_um"`
	OffsetUM float64 `json:"offset_um"` // Distance from the well centre
	Well     string  `json:"well"`
}

// FileReport is one document's entry in a report.
type FileReport struct {
	Source string        `json:"source"`
	Plate  string        `json:"plate,omitempty"`
	Scenes []SceneReport `json:"scenes,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Report builds the report entry for an outcome.
func (o Outcome) Report() FileReport {
	rep := FileReport{Source: o.Job.Name}
	if o.Err != nil {
		rep.Error = o.Err.Error()
		return rep
	}
	run, err := o.Run(time.Time{})
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Plate = run.Plate
	centers := make(map[string]geometry.Point2D, len(o.Result.Wells))
	for _, w := range o.Result.Wells {
		centers[w.Label()] = w.Center
	}
	for _, a := range run.Assignments {
		well := a.Row + a.Col
		rep.Scenes = append(rep.Scenes, SceneReport{
			Scene:    a.Scene,
			Name:     a.SceneName,
			Position: a.Position,
			XUM:      a.XUM,
			YUM:      a.YUM,
			OffsetUM: geometry.NewPoint2D(a.XUM, a.YUM).Distance(centers[well]),
			Well:     well,
		})
	}
	return rep
}

// WriteJSON writes the outcomes as an indented JSON array.
func WriteJSON(w io.Writer, outcomes []Outcome) error {
	reports := make([]FileReport, len(outcomes))
	for i, o := range outcomes {
		reports[i] = o.Report()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// WriteTable writes one aligned line per scene, and one per failed document.
func WriteTable(w io.Writer, outcomes []Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tPLATE\tSCENE\tNAME\tPOSITION\tX_UM\tY_UM\tOFFSET_UM\tWELL")
	for _, o := range outcomes {
		rep := o.Report()
		if rep.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\terror: %s\n", rep.Source, rep.Error)
			continue
		}
		for _, s := range rep.Scenes {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%.1f\t%.1f\t%.1f\t%s\n",
				rep.Source, rep.Plate, s.Scene, s.Name, s.Position, s.XUM, s.YUM, s.OffsetUM, s.Well)
		}
	}
	return tw.Flush()
}
