// Command vmdump prints every stage of translating one VM unit.
package main

import (
	"fmt"
	"io"
	"os"

	"govm/pkg/asm"
	"govm/pkg/codegen"
	"govm/pkg/hack"
	"govm/pkg/translator"
	"govm/pkg/vm"
)

const testSource = `// computes 7 + 8 and compares it with 15
push constant 7
push constant 8
add
push constant 15
eq
`

func main() {
	unit, src := "Sample.vm", testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		unit, src = os.Args[1], string(data)
	}

	if err := dump(os.Stdout, unit, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(w io.Writer, unit, src string) error {
	fmt.Fprintf(w, "Source:\n%s\n", src)

	ledger := vm.NewCallLedger()
	instrs, err := vm.Parse(unit, src, ledger)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintf(w, "Instructions (%d)\n", len(instrs))
	for _, in := range instrs {
		fmt.Fprintln(w, " ", in)
	}
	fmt.Fprintln(w)

	frags, err := codegen.Generate(translator.ModuleName(unit), instrs)
	if err != nil {
		return fmt.Errorf("codegen error: %w", err)
	}

	fmt.Fprintln(w, "Fragments")
	for _, f := range frags {
		fmt.Fprintf(w, "  %s\n", f.Source)
		for _, ins := range f.Code {
			fmt.Fprintf(w, "      %s\n", ins)
		}
	}
	fmt.Fprintln(w)

	words, _, err := asm.Assemble(codegen.Render(frags, false))
	if err != nil {
		return fmt.Errorf("assemble error: %w", err)
	}
	fmt.Fprintf(w, "ROM: %d of %d words\n\n", len(words), hack.ROMSize)
	fmt.Fprint(w, ledger)
	return nil
}
