package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"govm/pkg/vfs"
	"govm/pkg/vm"
)

func writeUnit(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestTranslateSingleFile(t *testing.T) {
	dir := t.TempDir()
	in := writeUnit(t, dir, "SimpleAdd.vm", "push constant 7\npush constant 8\nadd\n")

	var out bytes.Buffer
	err := translate(config{in: in, comments: true}, vfs.NewVirtualDisk(), &out)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	asmText, err := os.ReadFile(filepath.Join(dir, "SimpleAdd.asm"))
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if !strings.HasPrefix(string(asmText), "// push constant 7\n") {
		t.Errorf("unexpected artifact start:\n%s", asmText)
	}
	if strings.Contains(string(asmText), "Sys.init") {
		t.Error("bootstrap emitted although disabled")
	}
	if !strings.Contains(out.String(), "translated 1 unit(s)") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestTranslateDirectoryAndRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Prog")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeUnit(t, dir, "Sys.vm", "function Sys.init 0\npush constant 6\ncall Main.double 1\nreturn\n")
	writeUnit(t, dir, "Main.vm", "function Main.double 0\npush argument 0\npush argument 0\nadd\nreturn\n")
	writeUnit(t, dir, "README.txt", "not a unit")

	var out bytes.Buffer
	cfg := config{in: dir, bootstrap: true, run: true, hack: true, cycles: 100_000}
	if err := translate(cfg, vfs.NewVirtualDisk(), &out); err != nil {
		t.Fatalf("translate: %v", err)
	}

	for _, name := range []string{"Prog.asm", "Prog.hack"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	hackText, _ := os.ReadFile(filepath.Join(dir, "Prog.hack"))
	first := strings.SplitN(string(hackText), "\n", 2)[0]
	if first != "0000000100000000" {
		t.Errorf("first word = %q, want @256", first)
	}

	if !strings.Contains(out.String(), "translated 2 unit(s)") {
		t.Errorf("stdout = %q", out.String())
	}
	if !strings.Contains(out.String(), "halted=true SP=257 top=12") {
		t.Errorf("run output = %q", out.String())
	}
}

func TestTranslateExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeUnit(t, dir, "A.vm", "push constant 1\n")
	target := filepath.Join(dir, "build", "out.asm")

	if err := translate(config{in: in, out: target}, vfs.NewVirtualDisk(), &bytes.Buffer{}); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("explicit output missing: %v", err)
	}
}

func TestMissingOperandWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "Good.vm", "push constant 1\n")
	writeUnit(t, dir, "Worse.vm", "push constant\n")

	err := translate(config{in: dir}, vfs.NewVirtualDisk(), &bytes.Buffer{})
	if !errors.Is(err, vm.ErrMissingOperand) {
		t.Fatalf("err = %v, want missing operand", err)
	}
	var pe *vm.ParseError
	if !errors.As(err, &pe) || pe.Unit != "Worse.vm" || pe.Line != 1 {
		t.Errorf("parse error = %#v", pe)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".vm" {
			t.Errorf("unexpected file %s after failed translation", e.Name())
		}
	}
}

func TestPopConstantWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeUnit(t, dir, "Bad.vm", "push constant 1\npop constant 0\n")

	err := translate(config{in: in}, vfs.NewVirtualDisk(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "pop constant 0") {
		t.Fatalf("err = %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "Bad.asm")); !os.IsNotExist(statErr) {
		t.Errorf("artifact exists after failure: %v", statErr)
	}
}

func TestMissingInput(t *testing.T) {
	err := translate(config{in: filepath.Join(t.TempDir(), "nothing.vm")}, vfs.NewVirtualDisk(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error for a missing input")
	}
}
