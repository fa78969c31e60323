// Command weldbead evaluates a weld job script and prints the resulting
// bead paths as JSON.
//
// Usage:
//
//	weldbead -script job.weld [-dxf part.dxf]... [-out beads.dxf] [-mesh beads.json]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/weldbead/pkg/dxfio"
	"github.com/chazu/weldbead/pkg/kernel/sdfx"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/tessellate"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "weldbead:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("weldbead", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dxfPaths []string
	script := fs.String("script", "", "weld job script to evaluate")
	fs.Func("dxf", "DXF drawing to load as a shape named after the file (repeatable)", func(s string) error {
		dxfPaths = append(dxfPaths, s)
		return nil
	})
	out := fs.String("out", "", "write bead paths to this DXF file")
	meshOut := fs.String("mesh", "", "write bead preview meshes to this JSON file")
	endCap := fs.String("cap", "rounded", "bead preview end cap: flat, rounded or pointed")
	cells := fs.Int("cells", sdfx.DefaultMeshCells, "marching cubes resolution for previews")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *script == "" {
		fs.Usage()
		return fmt.Errorf("-script is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer logging.SetLogger(nil)

	source, err := os.ReadFile(*script)
	if err != nil {
		return err
	}
	c, err := tessellate.ParseEndCap(*endCap)
	if err != nil {
		return err
	}

	app := newApp(sdfx.NewWithResolution(*cells))
	app.Preview = *meshOut != ""
	app.Cap = c
	for _, p := range dxfPaths {
		s, err := dxfio.Import(p)
		if err != nil {
			return err
		}
		app.Shapes = append(app.Shapes, s)
	}

	result := app.Evaluate(string(source))

	if *meshOut != "" {
		if err := writeJSON(*meshOut, result.Meshes); err != nil {
			return err
		}
	}
	if *out != "" {
		if err := dxfio.ExportBatches(*out, result.AllBatches()); err != nil {
			return err
		}
	}

	// Meshes go to their own file; stdout carries the paths.
	report := result
	report.Meshes = []MeshData{}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d error(s) during evaluation", len(result.Errors))
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
