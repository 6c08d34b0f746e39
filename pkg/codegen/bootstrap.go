package codegen

import (
	"govm/pkg/hack"
	"govm/pkg/vm"
)

const (
	// EntryPoint is the zero-argument function every program must define.
	EntryPoint = "Sys.init"

	// HaltLabel parks the machine if the entry point ever returns.
	HaltLabel = "BOOTSTRAP" + vm.LabelSeparator + "HALT"
)

// BootstrapCall is the synthetic call emitted by the bootstrap. Its return
// label uses index 0, which the call ledger never hands out.
var BootstrapCall = vm.Call{
	Function:    EntryPoint,
	ReturnLabel: vm.ReturnLabel(EntryPoint, 0),
	NumArgs:     0,
}

// Bootstrap returns the program prologue: SP = 256, call Sys.init 0, then a
// self-loop.
func Bootstrap() []Fragment {
	initSP := Fragment{
		Code: []hack.Instruction{
			hack.AtValue(hack.StackBase),
			hack.Assign(hack.DestD, hack.CompA),
			hack.At("SP"),
			hack.Assign(hack.DestM, hack.CompD),
		},
	}
	call := Fragment{
		Source: BootstrapCall,
		Code:   callTemplate(BootstrapCall.Function, BootstrapCall.ReturnLabel, BootstrapCall.NumArgs),
	}
	halt := Fragment{
		Code: concat(labelTemplate(HaltLabel), gotoTemplate(HaltLabel)),
	}
	return []Fragment{initSP, call, halt}
}
