// Command xtilesim runs an XE image on the simulated system: it loads the image's
// code sectors into tile RAM, wires the host syscall handler and the requested
// tracers, and drives the scheduler to completion, propagating the simulated
// program's exit code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/system"
	"github.com/zotley-sim/xtilesim/xcore/syscall"
	"github.com/zotley-sim/xtilesim/xcore/trace"
	"github.com/zotley-sim/xtilesim/xcore/xe"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("xtilesim", flag.ContinueOnError)
	var (
		traceFlag = fs.Bool("trace", false, "print every executed instruction")
		statsFlag = fs.Bool("stats", false, "print instruction statistics on exit")
		vcdFile   = fs.String("vcd", "", "dump port waveforms to a VCD file")
		timeout   = fs.Uint64("timeout", 0, "stop after this many cycles")
		xs2       = fs.Bool("xs2", false, "decode the XS2-A instruction set")
		argsMode  = fs.Bool("args", false, "pass remaining operands to the program as argv")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: xtilesim [flags] image.xe\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	image := fs.Arg(0)
	var progArgs []string
	if *argsMode {
		progArgs = fs.Args()[1:]
	}

	im, err := xe.Load(image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	sys, core, err := buildSystem(im, *xs2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	sys.Timeout = *timeout

	var tracers trace.Multi
	if *traceFlag {
		tracers = append(tracers, trace.NewLogging(os.Stderr))
	}
	stats := trace.NewStats()
	if *statsFlag {
		tracers = append(tracers, stats)
	}
	var vcdOut *os.File
	if *vcdFile != "" {
		vcdOut, err = os.Create(*vcdFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer vcdOut.Close()
		vcd := trace.NewVCD(vcdOut)
		for _, p := range core.Ports() {
			num := p.Base.ID.Num()
			vcd.Add(p, port.Name(port.Width(num>>8), int(num&0xff)))
		}
	}
	if len(tracers) > 0 {
		sys.SetTracer(tracers)
	}

	handler := syscall.NewHandler()
	handler.Args = progArgs
	sys.SetSyscallHandler(handler)

	entry, ok := loadImage(im, core)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: image has no loadable code sector\n")
		return 1
	}
	if !sys.Start(core.Thread(0), entry) {
		fmt.Fprintf(os.Stderr, "error: entry point %#x outside RAM\n", entry)
		return 1
	}

	result := sys.Run()
	if *statsFlag {
		stats.Report(os.Stderr)
	}
	switch result.Status {
	case system.Exited:
		return result.Code
	case system.TimedOut:
		fmt.Fprintf(os.Stderr, "error: simulation timed out at %d cycles\n", result.Time)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "error: no runnable threads at %d cycles\n", result.Time)
		return 1
	}
}
