// Package build turns a .vm file or directory on the host into a loaded
// Hack machine. The front ends share it.
package build

import (
	"fmt"

	"govm/pkg/asm"
	"govm/pkg/cpu"
	"govm/pkg/translator"
	"govm/pkg/vfs"
)

type Program struct {
	Result *translator.Result
	Words  []uint16
	// Lines maps ROM addresses to lines of Result.Text.
	Lines map[uint16]int
}

// FromPath reads every .vm unit at path, translates and assembles them.
func FromPath(path string, opts translator.Options) (*Program, error) {
	disk := vfs.NewVirtualDisk()
	if err := disk.LoadFrom(path, translator.SourceExt); err != nil {
		return nil, err
	}
	return FromSource(disk, opts)
}

func FromSource(src translator.Source, opts translator.Options) (*Program, error) {
	res, err := translator.NewSession(opts).Translate(src)
	if err != nil {
		return nil, err
	}
	words, lines, err := asm.Assemble(string(res.Text))
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return &Program{Result: res, Words: words, Lines: lines}, nil
}

// Machine returns a CPU with the program in ROM.
func (p *Program) Machine() (*cpu.CPU, error) {
	c := cpu.NewCPU()
	if err := c.Load(p.Words); err != nil {
		return nil, err
	}
	return c, nil
}
