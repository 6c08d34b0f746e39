// Package scenario runs VM programs described in YAML files on the emulator
// and checks the resulting RAM.
//
//	name: SimpleAdd
//	bootstrap: false
//	cycles: 1000
//	sources:
//	  - name: SimpleAdd.vm
//	    code: |
//	      push constant 7
//	      push constant 8
//	      add
//	  - path: Sys.vm        # relative to the scenario file
//	ram:
//	  0: 256
//	expect:
//	  0: 257
//	  256: 15
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"govm/pkg/asm"
	"govm/pkg/cpu"
	"govm/pkg/translator"
)

// endLabel parks programs translated without a bootstrap.
const endLabel = "SCENARIO$END"

var ErrNoSources = errors.New("scenario has no sources")

type Source struct {
	Name string `yaml:"name,omitempty"`
	Code string `yaml:"code,omitempty"`
	Path string `yaml:"path,omitempty"`
}

type Scenario struct {
	Name      string      `yaml:"name"`
	Bootstrap bool        `yaml:"bootstrap"`
	Cycles    uint64      `yaml:"cycles,omitempty"`
	Sources   []Source    `yaml:"sources"`
	RAM       map[int]int `yaml:"ram,omitempty"`
	Expect    map[int]int `yaml:"expect,omitempty"`

	// Dir resolves relative source paths; Load sets it to the file's directory.
	Dir string `yaml:"-"`
}

// Mismatch is one expected RAM cell that did not hold its value.
type Mismatch struct {
	Addr int
	Want int16
	Got  int16
}

func (m Mismatch) String() string {
	return fmt.Sprintf("RAM[%d] = %d, want %d", m.Addr, m.Got, m.Want)
}

type Result struct {
	Name       string
	Cycles     uint64
	Halted     bool
	TimedOut   bool
	Words      int
	Mismatches []Mismatch
	CPU        *cpu.CPU
}

func (r *Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return s, nil
}

// Parse decodes a scenario, rejecting unknown keys.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if len(s.Sources) == 0 {
		return nil, ErrNoSources
	}
	for i, src := range s.Sources {
		if (src.Code == "") == (src.Path == "") {
			return nil, fmt.Errorf("source %d: exactly one of code or path is required", i+1)
		}
		if src.Code != "" && src.Name == "" {
			return nil, fmt.Errorf("source %d: inline code needs a name", i+1)
		}
	}
	return &s, nil
}

// Units resolves the sources into translation units.
func (s *Scenario) Units() (translator.Units, error) {
	units := make(translator.Units, len(s.Sources))
	for _, src := range s.Sources {
		name, code := src.Name, src.Code
		if src.Path != "" {
			path := src.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.Dir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			code = string(data)
			if name == "" {
				name = filepath.Base(path)
			}
		}
		if _, dup := units[name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", name)
		}
		units[name] = code
	}
	return units, nil
}

// Run translates, assembles and executes the scenario, then compares RAM.
func Run(s *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	units, err := s.Units()
	if err != nil {
		return nil, err
	}

	session := translator.NewSession(translator.Options{Bootstrap: s.Bootstrap, Logger: logger})
	out, err := session.Translate(units)
	if err != nil {
		return nil, err
	}

	text := string(out.Text)
	if !s.Bootstrap {
		text += fmt.Sprintf("(%s)\n    @%s\n    0;JMP\n", endLabel, endLabel)
	}
	prog, _, err := asm.Assemble(text)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	c := cpu.NewCPU()
	if err := c.Load(prog); err != nil {
		return nil, err
	}
	for addr, v := range s.RAM {
		c.WriteMem(uint16(addr), uint16(v))
	}

	limit := s.Cycles
	if limit == 0 {
		limit = cpu.DefaultCycleLimit
	}
	cycles, err := c.Run(limit)
	res := &Result{
		Name:   s.Name,
		Cycles: cycles,
		Halted: c.Halted,
		Words:  len(prog),
		CPU:    c,
	}
	switch {
	case errors.Is(err, cpu.ErrCycleLimit):
		res.TimedOut = true
	case err != nil:
		return nil, err
	}

	addrs := make([]int, 0, len(s.Expect))
	for addr := range s.Expect {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	for _, addr := range addrs {
		want := int16(s.Expect[addr])
		got := int16(c.ReadMem(uint16(addr)))
		if got != want {
			res.Mismatches = append(res.Mismatches, Mismatch{Addr: addr, Want: want, Got: got})
		}
	}

	logger.Info("scenario finished",
		"name", s.Name,
		"cycles", res.Cycles,
		"halted", res.Halted,
		"mismatches", len(res.Mismatches))
	return res, nil
}
