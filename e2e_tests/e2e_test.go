package e2e_tests

import (
	"testing"

	"govm/pkg/build"
	"govm/pkg/cpu"
	"govm/pkg/translator"
)

// runProgram translates units behind the bootstrap and runs them until the
// machine parks on its halt loop.
func runProgram(t *testing.T, units translator.Units) *cpu.CPU {
	t.Helper()
	prog, err := build.FromSource(units, translator.Options{Bootstrap: true})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	vm, err := prog.Machine()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := vm.RunUntilDone(); err != nil {
		t.Fatalf("run failed after %d cycles: %v", vm.Cycles, err)
	}
	if !vm.Halted {
		t.Fatal("machine did not halt")
	}
	return vm
}

func TestRecursiveFibonacci(t *testing.T) {
	vm := runProgram(t, translator.Units{
		"Sys.vm": `
function Sys.init 0
push constant 10
call Main.fib 1
return
`,
		"Main.vm": `
// fib(n) = n < 2 ? n : fib(n-1) + fib(n-2)
function Main.fib 0
push argument 0
push constant 2
lt
if-goto BASE
push argument 0
push constant 1
sub
call Main.fib 1
push argument 0
push constant 2
sub
call Main.fib 1
add
return
label BASE
push argument 0
return
`,
	})

	if got := int16(vm.RAM[256]); got != 55 {
		t.Errorf("fib(10) = %d, want 55", got)
	}
	if vm.SP() != 257 {
		t.Errorf("SP = %d, want 257", vm.SP())
	}
}

func TestFrameRestoredAcrossCalls(t *testing.T) {
	vm := runProgram(t, translator.Units{
		"Sys.vm": `
function Sys.init 2
push constant 3000
pop pointer 0
push constant 4000
pop pointer 1
push constant 5
pop local 1
call Util.clobber 0
pop temp 0
push local 1
push pointer 0
push pointer 1
add
add
return
`,
		"Util.vm": `
function Util.clobber 3
push constant 9
pop pointer 0
push constant 9
pop pointer 1
push constant 77
pop local 1
push constant 1
return
`,
	})

	// 5 + 3000 + 4000
	if got := int16(vm.RAM[256]); got != 7005 {
		t.Errorf("result = %d, want 7005", got)
	}
	if got := vm.RAM[5]; got != 1 {
		t.Errorf("temp 0 = %d, want 1", got)
	}
}

func TestStaticsAreIsolatedPerModule(t *testing.T) {
	vm := runProgram(t, translator.Units{
		"Sys.vm": `
function Sys.init 0
push constant 11
call A.set 1
pop temp 0
push constant 22
call B.set 1
pop temp 0
call A.get 0
call B.get 0
sub
return
`,
		"A.vm": `
function A.set 0
push argument 0
pop static 0
push constant 0
return
function A.get 0
push static 0
return
`,
		"B.vm": `
function B.set 0
push argument 0
pop static 0
push constant 0
return
function B.get 0
push static 0
return
`,
	})

	if got := int16(vm.RAM[256]); got != -11 {
		t.Errorf("A.0 - B.0 = %d, want -11", got)
	}
}

func TestLoopWithComparisons(t *testing.T) {
	// Sum of 1..100, counting down with gt.
	vm := runProgram(t, translator.Units{
		"Sys.vm": `
function Sys.init 2
push constant 100
pop local 0
label LOOP
push local 0
push constant 0
gt
not
if-goto END
push local 1
push local 0
add
pop local 1
push local 0
push constant 1
sub
pop local 0
goto LOOP
label END
push local 1
return
`,
	})

	if got := int16(vm.RAM[256]); got != 5050 {
		t.Errorf("sum = %d, want 5050", got)
	}
}

func TestScreenWrite(t *testing.T) {
	vm := runProgram(t, translator.Units{
		"Sys.vm": `
function Sys.init 0
push constant 16384
pop pointer 1
push constant 1
neg
pop that 0
push constant 0
return
`,
	})

	pixels := vm.GetFramebufferRGBA()
	for x := 0; x < 16; x++ {
		if pixels[x*4] != 0 {
			t.Fatalf("pixel %d of row 0 not set", x)
		}
	}
	if pixels[16*4] != 0xFF {
		t.Error("pixel 16 of row 0 should be clear")
	}
}
