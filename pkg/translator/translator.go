// Package translator drives a whole program through parsing and code
// generation: units in sorted order, one shared call ledger, one bootstrap,
// and a single artifact that is only written when every unit succeeds.
package translator

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"govm/pkg/codegen"
	"govm/pkg/hack"
	"govm/pkg/vfs"
	"govm/pkg/vm"
)

const (
	SourceExt = ".vm"
	OutputExt = ".asm"
)

var ErrNoUnits = errors.New("no VM units to translate")

// Source lists and reads translation units.
type Source interface {
	List() []string
	Read(name string) ([]byte, error)
}

// Sink receives the finished artifact.
type Sink interface {
	Write(name string, data []byte) error
}

type Options struct {
	// Bootstrap emits SP initialisation and the call to Sys.init.
	Bootstrap bool
	// Comments precedes each fragment with its VM source line.
	Comments bool
	Logger   *slog.Logger
}

// UnitStats summarises one translated unit.
type UnitStats struct {
	Unit         string
	Module       string
	Instructions int
	Fragments    int
	Comparisons  int
}

type Result struct {
	Units   []UnitStats
	Program []hack.Instruction
	Text    []byte
}

// Session owns the call ledger for one program.
type Session struct {
	opts   Options
	ledger *vm.CallLedger
	logger *slog.Logger
}

func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		opts:   opts,
		ledger: vm.NewCallLedger(),
		logger: logger,
	}
}

func (s *Session) Ledger() *vm.CallLedger {
	return s.ledger
}

// ModuleName is the unit name without directory or extension, e.g. "Main"
// for "Main.vm". Static cells of the unit are named after it.
func ModuleName(unit string) string {
	base := filepath.Base(unit)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Translate translates every .vm unit of src. Nothing is returned on error.
func (s *Session) Translate(src Source) (*Result, error) {
	var units []string
	for _, name := range src.List() {
		if vfs.HasExt(name, SourceExt) {
			units = append(units, name)
		}
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	sort.Strings(units)

	res := &Result{}
	var frags []codegen.Fragment
	if s.opts.Bootstrap {
		frags = append(frags, codegen.Bootstrap()...)
	}

	for _, unit := range units {
		data, err := src.Read(unit)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", unit, err)
		}

		stats, unitFrags, err := s.translateUnit(unit, string(data))
		if err != nil {
			return nil, err
		}
		res.Units = append(res.Units, stats)
		frags = append(frags, unitFrags...)
	}

	res.Program = codegen.Flatten(frags, s.opts.Comments)

	var buf bytes.Buffer
	if err := hack.Write(&buf, res.Program); err != nil {
		return nil, err
	}
	res.Text = buf.Bytes()
	return res, nil
}

func (s *Session) translateUnit(unit, src string) (UnitStats, []codegen.Fragment, error) {
	module := ModuleName(unit)

	instrs, err := vm.Parse(unit, src, s.ledger)
	if err != nil {
		return UnitStats{}, nil, err
	}

	gen := codegen.NewGenerator(module)
	frags, err := gen.Generate(instrs)
	if err != nil {
		return UnitStats{}, nil, err
	}

	stats := UnitStats{
		Unit:         unit,
		Module:       module,
		Instructions: len(instrs),
		Fragments:    len(frags),
		Comparisons:  gen.Comparisons(),
	}
	s.logger.Debug("translated unit",
		"unit", unit,
		"instructions", stats.Instructions,
		"fragments", stats.Fragments,
		"comparisons", stats.Comparisons)
	return stats, frags, nil
}

// TranslateTo translates src and hands the artifact to sink under output.
// The sink is not touched when translation fails.
func (s *Session) TranslateTo(src Source, sink Sink, output string) (*Result, error) {
	res, err := s.Translate(src)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(output, res.Text); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}
	s.logger.Info("wrote artifact",
		"output", output,
		"units", len(res.Units),
		"lines", len(res.Program))
	return res, nil
}

// Units is an in-memory Source, handy for inline programs.
type Units map[string]string

func (u Units) List() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (u Units) Read(name string) ([]byte, error) {
	src, ok := u[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", vfs.ErrFileNotFound, name)
	}
	return []byte(src), nil
}
