package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/tebeka/atexit"
	"golang.org/x/image/font/basicfont"

	"govm/pkg/build"
	"govm/pkg/cpu"
	"govm/pkg/translator"
)

const statusHeight = 16

var statusFace = text.NewGoXFace(basicfont.Face7x13)

type Game struct {
	vm             *cpu.CPU
	cyclesPerFrame uint64
	paused         bool
	// snapshot is the machine right after loading; Ctrl+R restores it.
	snapshot []byte
	message  string

	screenImg *ebiten.Image
	pressed   []ebiten.Key
}

func newGame(vm *cpu.CPU, cyclesPerFrame uint64) (*Game, error) {
	snap, err := vm.HibernateToBytes()
	if err != nil {
		return nil, err
	}
	return &Game{vm: vm, cyclesPerFrame: cyclesPerFrame, snapshot: snap}, nil
}

// advance feeds the held key to the keyboard register and runs one frame's
// worth of cycles.
func (g *Game) advance(keyCode uint16) {
	if keyCode == 0 {
		g.vm.ReleaseKey()
	} else {
		g.vm.PressKey(keyCode)
	}
	if g.paused || g.vm.Halted {
		return
	}
	_, err := g.vm.Run(g.cyclesPerFrame)
	if err != nil && !errors.Is(err, cpu.ErrCycleLimit) {
		g.message = err.Error()
		slog.Error("machine fault", "pc", g.vm.PC, "err", err)
	}
}

func (g *Game) reset() error {
	if err := g.vm.RestoreFromBytes(g.snapshot); err != nil {
		return err
	}
	g.message = "reset"
	return nil
}

func (g *Game) screenshot() {
	name := fmt.Sprintf("govm_%s.png", time.Now().Format("20060102_150405"))
	if err := g.vm.SaveScreenshot(name); err != nil {
		g.message = err.Error()
		return
	}
	g.message = "saved " + name
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyR):
			if err := g.reset(); err != nil {
				return err
			}
		case inpututil.IsKeyJustPressed(ebiten.KeyS):
			g.screenshot()
		case inpututil.IsKeyJustPressed(ebiten.KeyP):
			g.paused = !g.paused
		}
		g.advance(0)
		return nil
	}

	g.pressed = inpututil.AppendPressedKeys(g.pressed[:0])
	g.advance(heldKeyCode(g.pressed))
	return nil
}

func statusLine(vm *cpu.CPU, paused bool, message string) string {
	state := "running"
	switch {
	case vm.Fault != nil:
		state = "fault"
	case vm.Halted:
		state = "halted"
	case paused:
		state = "paused"
	}
	line := fmt.Sprintf("%-7s PC=%05d SP=%05d cycles=%d", state, vm.PC, vm.SP(), vm.Cycles)
	if message != "" {
		line += "  " + message
	}
	return line
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.GetFramebufferRGBA())
	screen.DrawImage(g.screenImg, nil)

	op := &text.DrawOptions{}
	op.GeoM.Translate(4, cpu.ScreenHeight+2)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, statusLine(g.vm, g.paused, g.message), statusFace, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight + statusHeight
}

func main() {
	inPath := flag.String("in", "", "input .vm file, or a directory of .vm files")
	cyclesPerFrame := flag.Uint64("speed", 100_000, "instructions executed per frame")
	bootstrap := flag.Bool("bootstrap", true, "call Sys.init from a bootstrap")
	statePath := flag.String("state", "", "hibernation file restored at start and written on exit")
	flag.Parse()

	if *inPath == "" && flag.NArg() > 0 {
		*inPath = flag.Arg(0)
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: desktop [-speed N] [-state file] <file.vm|dir>")
		atexit.Exit(2)
	}

	prog, err := build.FromPath(*inPath, translator.Options{Bootstrap: *bootstrap})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		atexit.Exit(1)
	}
	vm, err := prog.Machine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		atexit.Exit(1)
	}

	game, err := newGame(vm, *cyclesPerFrame)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
		atexit.Exit(1)
	}
	if *statePath != "" {
		if err := vm.RestoreFromFile(*statePath); err == nil {
			game.message = "restored " + *statePath
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ignoring hibernation file", "path", *statePath, "err", err)
		}
		atexit.Register(func() {
			if err := vm.HibernateToFile(*statePath); err != nil {
				slog.Error("hibernate failed", "path", *statePath, "err", err)
			}
		})
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(2*cpu.ScreenWidth, 2*(cpu.ScreenHeight+statusHeight))
	ebiten.SetWindowTitle("govm - " + *inPath)

	if err := ebiten.RunGame(game); err != nil {
		slog.Error("desktop stopped", "err", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
