package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/animachine/animator"
	"github.com/milk9111/animachine/def"
	"github.com/milk9111/animachine/graph"
)

const (
	viewWidth  = 960
	viewHeight = 540
	frameDt    = 1.0 / 60.0
)

func main() {
	file := flag.String("file", "examples/locomotion.yaml", "controller definition to load")
	script := flag.String("script", "", "tengo script driving parameters (optional)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})

	v, err := newViewer(*file, *script, logger)
	if err != nil {
		logger.Fatal("start failed", "err", err)
	}
	defer v.close()

	ebiten.SetWindowSize(viewWidth, viewHeight)
	ebiten.SetWindowTitle("animview - " + filepath.Base(*file))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(v); err != nil {
		logger.Fatal("run failed", "err", err)
	}
}

// viewer loads a controller definition, steps it at a fixed rate, and
// draws the blended clip weights per layer. Parameters are driven by the
// keyboard or an optional tengo script, and the definition hot-reloads
// when the file changes on disk.
type viewer struct {
	logger *log.Logger

	file       string
	scriptPath string

	ctrl    *animator.Controller
	driver  *scriptDriver
	watcher *def.Watcher

	params   []graph.Parameter
	selected int

	face    ebtext.Face
	loadErr error
}

func newViewer(file, script string, logger *log.Logger) (*viewer, error) {
	v := &viewer{
		logger:     logger,
		file:       file,
		scriptPath: script,
		face:       ebtext.NewGoXFace(basicfont.Face7x13),
	}
	if err := v.reload(); err != nil {
		return nil, err
	}

	dirs := []string{filepath.Dir(file)}
	if script != "" && filepath.Dir(script) != dirs[0] {
		dirs = append(dirs, filepath.Dir(script))
	}
	watcher, err := def.NewWatcher(dirs...)
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
	} else {
		v.watcher = watcher
	}
	return v, nil
}

func (v *viewer) close() {
	if v.watcher != nil {
		_ = v.watcher.Close()
	}
}

// reload rebuilds the controller (and driver script) from disk. On
// failure the previous controller keeps running and the error shows in
// the HUD.
func (v *viewer) reload() error {
	doc, err := def.Load(v.file)
	if err != nil {
		return err
	}
	asset, err := doc.Link()
	if err != nil {
		return err
	}

	listeners := animator.Listeners{
		StateEnter: func(ev animator.StateEvent) {
			v.logger.Debug("state enter", "layer", ev.Layer, "state", ev.State.FullPath)
		},
		StateExit: func(ev animator.StateEvent) {
			v.logger.Debug("state exit", "layer", ev.Layer, "state", ev.State.FullPath)
		},
		MachineEnter: func(ev animator.MachineEvent) {
			v.logger.Debug("machine enter", "layer", ev.Layer, "machine", ev.Machine.FullPath)
		},
		MachineExit: func(ev animator.MachineEvent) {
			v.logger.Debug("machine exit", "layer", ev.Layer, "machine", ev.Machine.FullPath)
		},
	}

	v.ctrl = animator.New(asset, doc.Durations(),
		animator.WithListeners(listeners),
		animator.WithLogger(v.logger),
	)
	v.params = asset.Params
	if v.selected >= len(v.params) {
		v.selected = 0
	}

	if v.scriptPath != "" {
		driver, err := newScriptDriver(v.scriptPath)
		if err != nil {
			return err
		}
		v.driver = driver
	}

	v.logger.Info("controller loaded", "file", v.file, "layers", len(asset.Layers), "params", len(asset.Params))
	return nil
}

func (v *viewer) Update() error {
	v.drainWatcher()
	v.handleKeys()

	if v.driver != nil {
		if err := v.driver.step(frameDt, v.ctrl); err != nil {
			v.logger.Error("script step failed", "err", err)
			v.driver = nil
		}
	}

	v.ctrl.Update(frameDt)
	return nil
}

func (v *viewer) drainWatcher() {
	if v.watcher == nil {
		return
	}
	changed := false
	for {
		select {
		case ev, ok := <-v.watcher.Events:
			if !ok {
				v.watcher = nil
				return
			}
			v.logger.Info("file changed", "path", ev.Path)
			changed = true
		case err, ok := <-v.watcher.Errors:
			if ok {
				v.logger.Warn("watch error", "err", err)
			}
		default:
			if changed {
				if err := v.reload(); err != nil {
					v.loadErr = err
					v.logger.Error("reload failed", "err", err)
				} else {
					v.loadErr = nil
				}
			}
			return
		}
	}
}

func (v *viewer) handleKeys() {
	if len(v.params) == 0 {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.selected = (v.selected + 1) % len(v.params)
	}

	p := v.params[v.selected]
	switch p.Kind {
	case graph.ParamNumber:
		delta := 0.0
		if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
			delta = frameDt
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
			delta = -frameDt
		}
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			delta *= 4
		}
		if delta != 0 {
			v.ctrl.SetNumber(p.Name, v.ctrl.Number(p.Name)+delta)
		}
	case graph.ParamBool:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			v.ctrl.SetBool(p.Name, !v.ctrl.Bool(p.Name))
		}
	case graph.ParamTrigger:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			v.ctrl.SetTrigger(p.Name)
		}
	}
}

func (v *viewer) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f    Tab: next param    Up/Down: adjust    Enter: toggle/fire", ebiten.ActualFPS()))

	y := 40.0
	y = v.drawParams(screen, y)
	y += 10
	for _, layer := range v.ctrl.Layers() {
		y = v.drawLayer(screen, layer, y)
		y += 14
	}

	if v.loadErr != nil {
		v.drawText(screen, "reload error: "+v.loadErr.Error(), 10, float64(viewHeight)-24, color.NRGBA{R: 0xff, G: 0x60, B: 0x60, A: 0xff})
	}
}

func (v *viewer) drawParams(screen *ebiten.Image, y float64) float64 {
	for i, p := range v.params {
		marker := "  "
		if i == v.selected {
			marker = "> "
		}
		var value string
		switch p.Kind {
		case graph.ParamNumber:
			value = fmt.Sprintf("%.3f", v.ctrl.Number(p.Name))
		case graph.ParamBool:
			value = fmt.Sprintf("%v", v.ctrl.Bool(p.Name))
		case graph.ParamTrigger:
			value = fmt.Sprintf("%v (trigger)", v.ctrl.Bool(p.Name))
		}
		clr := color.NRGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
		if i == v.selected {
			clr = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		}
		v.drawText(screen, fmt.Sprintf("%s%-12s %s", marker, p.Name, value), 10, y, clr)
		y += 16
	}
	return y
}

func (v *viewer) drawLayer(screen *ebiten.Image, layer *animator.Layer, y float64) float64 {
	st := layer.Status()
	head := fmt.Sprintf("[%s] %s  state=%s t=%.2f", st.Name, st.Step, st.State, st.Time)
	if st.NextState != "" {
		head += fmt.Sprintf("  -> %s (%.0f%%)", st.NextState, st.Progress*100)
	}
	v.drawText(screen, head, 10, y, color.NRGBA{R: 0x80, G: 0xc0, B: 0xff, A: 0xff})
	y += 18

	const barMax = 320.0
	for _, bi := range layer.Output() {
		w := float32(bi.Weight * barMax)
		vector.FillRect(screen, 180, float32(y), w, 10, color.NRGBA{R: 0x50, G: 0xa0, B: 0x50, A: 0xff}, false)
		vector.StrokeRect(screen, 180, float32(y), barMax, 10, 1, color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}, false)
		v.drawText(screen, fmt.Sprintf("%-16s %.3f  t=%.2f", bi.Clip, bi.Weight, bi.Time), 10, y-2, color.NRGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff})
		y += 14
	}
	return y
}

func (v *viewer) drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	ebtext.Draw(screen, s, v.face, op)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewWidth, viewHeight
}
