// Command platecheck lists the plate catalog, dumps well geometry and
// validates plate definition files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"wellmap/internal/config"
	"wellmap/internal/plate"
	"wellmap/internal/render"
)

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	var plates stringList
	flag.Var(&plates, "plates", "Plate definition JSON file to add to the catalog (repeatable)")
	geometry := flag.String("geometry", "", "Print the well centres of the named plate as JSON")
	renderPath := flag.String("render", "", "With -geometry, draw the empty plate to this .png or .tif path")
	flag.Parse()

	catalog, err := config.Config{PlateFiles: plates}.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load plates: %v\n", err)
		os.Exit(1)
	}

	if *geometry != "" {
		spec, ok := catalog.Get(*geometry)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown plate %q (have %s)\n", *geometry, strings.Join(catalog.Names(), ", "))
			os.Exit(1)
		}
		if err := writeGeometry(os.Stdout, spec); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write geometry: %v\n", err)
			os.Exit(1)
		}
		if *renderPath != "" {
			if err := renderPlate(*renderPath, spec); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to render %s: %v\n", *renderPath, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Plate map: %s\n", *renderPath)
		}
		return
	}

	if flag.NArg() > 0 {
		if failed := validateFiles(os.Stdout, flag.Args()); failed > 0 {
			os.Exit(1)
		}
		return
	}

	listCatalog(os.Stdout, catalog)
}

// listCatalog prints the specs in resolution order.
func listCatalog(w io.Writer, catalog *plate.Catalog) {
	for _, spec := range catalog.Candidates() {
		extent := spec.NominalExtent()
		a1 := spec.A1Center()
		fmt.Fprintf(w, "%s\n", spec)
		fmt.Fprintf(w, "  footprint %.2f x %.2f mm, A1 at (%.0f, %.0f) µm\n",
			spec.PlateWidthMM, spec.PlateHeightMM, a1.X, a1.Y)
		fmt.Fprintf(w, "  accepts stage extents up to %.0f x %.0f µm\n",
			extent.Width+plate.ExtentToleranceUM, extent.Height+plate.ExtentToleranceUM)
	}
}

func writeGeometry(w io.Writer, spec *plate.Spec) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Plate string       `json:"plate"`
		Wells []plate.Well `json:"wells"`
	}{spec.Name, plate.GenerateGeometry(spec)})
}

// validateFiles reports each definition file as OK or with its error, and
// returns the number of invalid files.
func validateFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		spec, err := plate.LoadFromFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s: OK, %s\n", path, spec)
	}
	return failed
}

func renderPlate(path string, spec *plate.Spec) error {
	layer := render.Layer{Spec: spec, Wells: plate.GenerateGeometry(spec)}
	img, err := render.PlateMap(layer, render.DefaultOptions())
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.Encode(f, img, render.FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
