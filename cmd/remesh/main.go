// remesh runs dynamic topology strokes over procedural meshes and reports
// the resulting mesh, tree and engine statistics.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/sculptmesh/internal/config"
	"github.com/Faultbox/sculptmesh/internal/logger"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

func main() {
	// Global flags come before the command
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "grid":
		cmdGrid(cfg, args)
	case "strip":
		cmdStrip(cfg, args)
	case "icosphere", "ico":
		cmdIcosphere(cfg, args)
	case "config":
		cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`remesh - dynamic topology remeshing

Usage:
  remesh [global options] <command> [options]

Commands:
  grid [-n 8] [-size 1]              Remesh a flat grid
  strip [-n 10] [-edge 0.1]          Remesh a row of equilateral triangles
  icosphere [-subdiv 2] [-radius 1]  Remesh an icosphere
  config [path]                      Print the effective config, or save it

Stroke options (mesh commands):
  -strokes N     Number of strokes (default 3)
  -dabs N        Topology updates per stroke (default 8)
  -brush R       Brush radius relative to the mesh size (default 0.25)
  -symmetry A    Mirror axis 0, 1 or 2 (default -1, none)

Global options:
  -config path   Config file (default ./remesh.yaml or the user config dir)
  -detail L      Maximum edge length
  -steps N       Steps per pass, overriding the throttle
  -workers N     Scan workers
  -leaf-limit N  Faces per tree leaf
  -verify        Check and repair the tree after every stroke
  -no-subdivide  Skip edge subdivision
  -no-collapse   Skip edge collapse
  -metrics       Print metrics on exit
  -debug         Enable debug logging

Examples:
  remesh -detail 0.05 grid -n 4
  remesh -metrics -verify icosphere -subdiv 3 -strokes 5 -symmetry 0
  remesh -detail 2.5 -no-subdivide strip -n 10
  remesh config ./remesh.yaml`)
}

func cmdGrid(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	n := fs.Int("n", 8, "Cells per side")
	size := fs.Float64("size", 1, "Side length")
	so := strokeFlags(fs)
	fs.Parse(args)

	if *n < 1 || *size <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: remesh grid [-n cells] [-size length]")
		os.Exit(1)
	}
	run(cfg, "grid", mesh.NewGrid(*n, *n, *size, *size), *so)
}

func cmdStrip(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	n := fs.Int("n", 10, "Triangles in the strip")
	edge := fs.Float64("edge", 0.1, "Edge length")
	so := strokeFlags(fs)
	fs.Parse(args)

	if *n < 1 || *edge <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: remesh strip [-n triangles] [-edge length]")
		os.Exit(1)
	}
	run(cfg, "strip", mesh.NewStrip(*n, *edge), *so)
}

func cmdIcosphere(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("icosphere", flag.ExitOnError)
	subdiv := fs.Int("subdiv", 2, "Subdivision level")
	radius := fs.Float64("radius", 1, "Sphere radius")
	so := strokeFlags(fs)
	fs.Parse(args)

	if *subdiv < 0 || *radius <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: remesh icosphere [-subdiv level] [-radius r]")
		os.Exit(1)
	}
	run(cfg, "icosphere", mesh.NewIcosphere(*subdiv, *radius), *so)
}

func cmdConfig(cfg *config.Config, args []string) {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			logger.Error("failed to save config", zap.String("path", args[0]), zap.Error(err))
			os.Exit(1)
		}
		fmt.Printf("Saved: %s\n", args[0])
		return
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		logger.Error("failed to encode config", zap.Error(err))
		os.Exit(1)
	}
	os.Stdout.Write(data)
}
