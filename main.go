package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	ivm "ivm/vm"
)

func main() {
	app := cli.NewApp()
	app.Name = "ivm-emu"
	app.Usage = "Emulator for ivm bytecode binaries"
	app.UsageText = "ivm-emu [-m <size in bytes>] [-o <output dir>] [-i <input dir>] " +
		"[-a <arg file> [-a <env file>]] [-L <load offset>] <ivm binary file>"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.Uint64Flag{
			Name:  "m",
			Usage: "memory size in bytes",
			Value: ivm.DefaultMemBytes,
		},
		cli.StringFlag{
			Name:  "o",
			Usage: "output directory for frame files",
		},
		cli.StringFlag{
			Name:  "i",
			Usage: "input directory with PNG frames",
		},
		cli.StringSliceFlag{
			Name:  "a",
			Usage: "argument file; a second occurrence is the environment file",
		},
		cli.Uint64Flag{
			Name:  "L",
			Usage: "load offset for the bytecode",
		},
		cli.BoolFlag{
			Name:  "parallel",
			Usage: "write output frames from worker units",
		},
		cli.IntFlag{
			Name:  "threads",
			Usage: "unit count for parallel output (NUM_THREADS overrides)",
		},
		cli.BoolFlag{
			Name:  "fpe",
			Usage: "raise a fault on division by zero instead of returning 0",
		},
		cli.IntFlag{
			Name:  "verbose",
			Usage: "verbosity level (2+ enables tracing, 3 compact trace)",
		},
		cli.BoolFlag{
			Name:  "stepcount",
			Usage: "count instructions and report at exit",
		},
		cli.BoolFlag{
			Name:  "histogram",
			Usage: "per-opcode fetch and recode histogram (implies stepcount)",
		},
	}
	app.Action = run
	app.Run(os.Args)
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("", 1)
	}
	binfile := c.Args().First()

	fmt.Printf("Yet another ivm emulator, %s\n", ivm.Version)
	fmt.Printf("Compatible with ivm-2.1\n\n")

	m, err := ivm.New(ivm.Options{
		MemBytes:       c.Uint64("m"),
		LoadOffset:     c.Uint64("L"),
		OutDir:         c.String("o"),
		InpDir:         c.String("i"),
		RaiseDivByZero: c.Bool("fpe"),
		ParallelOutput: c.Bool("parallel"),
		NumThreads:     c.Int("threads"),
		Verbose:        c.Int("verbose"),
		StepCount:      c.Bool("stepcount") || c.Bool("histogram"),
		Histogram:      c.Bool("histogram"),
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	if err := m.LoadProgramFile(binfile); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	files := c.StringSlice("a")
	if len(files) > 0 {
		if err := m.LoadArgumentFile(files[0]); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	if len(files) > 1 {
		if err := m.LoadEnvironmentFile(files[1]); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	m.Run()
	m.ReportHalt()
	if code := m.ExitCode(); code != 0 {
		return cli.NewExitError("", code)
	}
	return nil
}
