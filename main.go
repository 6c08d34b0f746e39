//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"govm/pkg/asm"
	"govm/pkg/cpu"
	"govm/pkg/translator"
	"govm/pkg/utils"
	"govm/pkg/vfs"
)

type config struct {
	in        string
	out       string
	run       bool
	bootstrap bool
	comments  bool
	hack      bool
	cycles    uint64
}

func main() {
	var cfg config
	flag.StringVar(&cfg.in, "in", "", "input .vm file, or a directory of .vm files")
	flag.StringVar(&cfg.out, "out", "", "output assembly file path (default: <file>.asm, or <dir>/<dir>.asm)")
	flag.BoolVar(&cfg.run, "run", false, "assemble the output and run it on the Hack emulator")
	flag.BoolVar(&cfg.bootstrap, "bootstrap", true, "emit SP=256 and call Sys.init before the program")
	flag.BoolVar(&cfg.comments, "comments", true, "precede each instruction's code with the VM source line")
	flag.BoolVar(&cfg.hack, "hack", false, "also write the assembled .hack file next to the output")
	flag.Uint64Var(&cfg.cycles, "cycles", cpu.DefaultCycleLimit, "cycle budget for -run")
	verbose := flag.Bool("v", false, "enable debug logging")
	logJSON := flag.Bool("log-json", false, "log as JSON instead of text")
	flag.Parse()

	setupLogging(*verbose, *logJSON)

	if cfg.in == "" && flag.NArg() > 0 {
		cfg.in = flag.Arg(0)
	}
	if cfg.in == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file.vm|dir>")
		flag.Usage()
		atexit.Exit(2)
	}

	disk := vfs.NewVirtualDisk()
	atexit.Register(disk.Cleanup)

	if err := translate(cfg, disk, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func setupLogging(verbose, asJSON bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// translate runs the whole pipeline for cfg. Output files are only created
// once every unit has translated.
func translate(cfg config, disk *vfs.VirtualDisk, stdout io.Writer) error {
	if err := disk.LoadFrom(cfg.in, translator.SourceExt); err != nil {
		return fmt.Errorf("failed to read input %q: %w", cfg.in, err)
	}
	slog.Debug("loaded units", "input", cfg.in, "units", disk.ListExt(translator.SourceExt))

	outDir, outName, err := outputLocation(cfg.in, cfg.out)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	session := translator.NewSession(translator.Options{
		Bootstrap: cfg.bootstrap,
		Comments:  cfg.comments,
	})
	res, err := session.TranslateTo(disk, disk, outName)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	var program []uint16
	if cfg.run || cfg.hack {
		program, _, err = asm.Assemble(string(res.Text))
		if err != nil {
			return fmt.Errorf("assembly failed: %w", err)
		}
	}
	if cfg.hack {
		hackName := strings.TrimSuffix(outName, filepath.Ext(outName)) + ".hack"
		if err := disk.Write(hackName, []byte(asm.FormatHack(program))); err != nil {
			return fmt.Errorf("failed to stage %q: %w", hackName, err)
		}
	}

	if err := disk.PersistTo(outDir); err != nil {
		return fmt.Errorf("failed to write output to %q: %w", outDir, err)
	}
	fmt.Fprintf(stdout, "translated %d unit(s) -> %s\n", len(res.Units), filepath.Join(outDir, outName))
	slog.Debug("call sites", "ledger", session.Ledger().String())

	if cfg.run {
		if err := runProgramWords(stdout, program, cfg.cycles); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
	}
	return nil
}

// outputLocation splits the artifact path into the directory PersistTo
// writes into and the staged file name.
func outputLocation(inPath, outPath string) (string, string, error) {
	if outPath != "" {
		return utils.SplitOutput(outPath)
	}
	return utils.OutputPath(inPath, translator.OutputExt)
}

func runProgramWords(stdout io.Writer, program []uint16, cycles uint64) error {
	vm := cpu.NewCPU()
	if err := vm.Load(program); err != nil {
		return err
	}

	n, err := vm.Run(cycles)
	if err != nil && !errors.Is(err, cpu.ErrCycleLimit) {
		return err
	}

	top, _ := vm.Top()
	fmt.Fprintf(stdout,
		"run complete: cycles=%d halted=%t SP=%d top=%d LCL=%d ARG=%d THIS=%d THAT=%d\n",
		n,
		vm.Halted,
		vm.SP(),
		int16(top),
		vm.RAM[1],
		vm.RAM[2],
		vm.RAM[3],
		vm.RAM[4],
	)
	return err
}
