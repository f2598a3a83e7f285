// Command r55build drives package build's discover -> generate -> compile
// pipeline over a directory of contract projects.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/r55-lang/r55/build"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := &cli.App{
		Name:  "r55build",
		Usage: "compile annotated Go contract sources into R55 bytecode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "examples",
				Usage:    "directory containing contract project subdirectories (each with an r55.yaml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Usage:    "directory .bin/.initcode output is written to",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "toolchain",
				Usage: "Go toolchain binary to invoke",
				Value: "go",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "target GOARCH",
				Value: "riscv64",
			},
			&cli.StringFlag{
				Name:  "temp",
				Usage: "scratch directory for generated build units (defaults to <out>/../r55-build-tmp)",
			},
			&cli.IntFlag{
				Name:  "verbosity",
				Usage: "log level 0-1 (errors only) - 5 (trace)",
				Value: 3,
			},
		},
		Action: action,
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func action(c *cli.Context) error {
	setupLogging(c.Int("verbosity"))

	tempDir := c.String("temp")
	if tempDir == "" {
		tempDir = c.String("out") + "/../r55-build-tmp"
	}

	orch := build.NewOrchestrator(build.Config{
		ToolchainPath: c.String("toolchain"),
		TargetArch:    c.String("target"),
		ExamplesDir:   c.String("examples"),
		OutDir:        c.String("out"),
		TempDir:       tempDir,
	})
	return orch.Run()
}

// setupLogging maps a 0-5 verbosity scale onto go-ethereum/log's
// slog-backed handler.
func setupLogging(verbosity int) {
	var lvl slog.Level
	switch {
	case verbosity <= 1:
		lvl = slog.LevelError
	case verbosity == 2:
		lvl = slog.LevelWarn
	case verbosity == 3:
		lvl = slog.LevelInfo
	case verbosity == 4:
		lvl = slog.LevelDebug
	default:
		lvl = log.LevelTrace
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
}
