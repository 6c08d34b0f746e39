// Command console runs a VM program or a YAML scenario without a window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"govm/pkg/build"
	"govm/pkg/cpu"
	"govm/pkg/hack"
	"govm/pkg/scenario"
	"govm/pkg/translator"
	"govm/pkg/vfs"
)

type options struct {
	cycles     uint64
	bootstrap  bool
	screenshot string
	state      string
}

func main() {
	var opts options
	flag.Uint64Var(&opts.cycles, "cycles", cpu.DefaultCycleLimit, "cycle budget")
	flag.BoolVar(&opts.bootstrap, "bootstrap", true, "call Sys.init from a bootstrap (ignored for scenarios)")
	flag.StringVar(&opts.screenshot, "screenshot", "", "write the final screen to this PNG file")
	flag.StringVar(&opts.state, "state", "", "write the final machine state to this hibernation file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <file.vm|dir|scenario.yaml>")
		flag.PrintDefaults()
		atexit.Exit(2)
	}

	code, err := run(flag.Arg(0), opts, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	atexit.Exit(code)
}

// run returns the process exit code: 0 on success, 1 on error or failed
// expectations.
func run(path string, opts options, out io.Writer) (int, error) {
	var (
		vm     *cpu.CPU
		failed bool
	)
	if vfs.HasExt(path, ".yaml") || vfs.HasExt(path, ".yml") {
		s, err := scenario.Load(path)
		if err != nil {
			return 1, err
		}
		if opts.cycles != cpu.DefaultCycleLimit {
			s.Cycles = opts.cycles
		}
		res, err := scenario.Run(s, nil)
		if err != nil {
			return 1, err
		}
		vm = res.CPU
		report(out, vm, res.Cycles)
		for _, m := range res.Mismatches {
			fmt.Fprintln(out, "mismatch:", m)
		}
		if res.TimedOut {
			fmt.Fprintln(out, "timed out")
		}
		failed = !res.Passed()
		if !failed {
			fmt.Fprintf(out, "%s: ok\n", res.Name)
		}
	} else {
		prog, err := build.FromPath(path, translator.Options{Bootstrap: opts.bootstrap})
		if err != nil {
			return 1, err
		}
		vm, err = prog.Machine()
		if err != nil {
			return 1, err
		}
		n, err := vm.Run(opts.cycles)
		if err != nil && !errors.Is(err, cpu.ErrCycleLimit) {
			return 1, err
		}
		report(out, vm, n)
	}

	if opts.screenshot != "" {
		if err := vm.SaveScreenshot(opts.screenshot); err != nil {
			return 1, err
		}
	}
	if opts.state != "" {
		if err := vm.HibernateToFile(opts.state); err != nil {
			return 1, err
		}
	}
	if failed {
		return 1, nil
	}
	return 0, nil
}

func report(out io.Writer, vm *cpu.CPU, cycles uint64) {
	fmt.Fprintf(out, "cycles=%d halted=%t SP=%d\n", cycles, vm.Halted, vm.SP())
	if top, ok := vm.Top(); ok && vm.SP() > hack.StackBase {
		fmt.Fprintf(out, "top=%d\n", int16(top))
	}
}
