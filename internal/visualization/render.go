package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/common"
	"tiltmaze/internal/sensor"
	"tiltmaze/internal/simulation"
)

var (
	backgroundColor = color.RGBA{230, 230, 230, 255}
	wallColor       = color.RGBA{0, 0, 255, 255}
	ballColor       = color.RGBA{255, 0, 0, 255}
)

// Tilt magnitude produced by a held key, per sensor kind. Angular rate is in
// rad/s, linear acceleration in m/s^2.
var keyTilt = map[sensor.Kind]float64{
	sensor.KindAngularRate:        0.6,
	sensor.KindLinearAcceleration: 2.0,
}

// Renderer implements ebiten.Game. It stands in for the device: held arrow
// keys become sensor samples, and every frame draws the committed state.
type Renderer struct {
	sim   *simulation.Simulation
	start time.Time

	screenWidth  int
	screenHeight int

	// Transformation parameters
	scale   float64
	offsetX float64
	offsetY float64

	showDebug bool
}

// NewRenderer creates a new Ebiten renderer.
func NewRenderer(sim *simulation.Simulation) *Renderer {
	return &Renderer{
		sim:   sim,
		start: time.Now(),
		scale: 1,
		// screenWidth and screenHeight will be set by Layout
	}
}

// Update is called every tick. It delivers one sensor sample built from the
// keyboard state.
func (r *Renderer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		r.sim.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		r.showDebug = !r.showDebug
	}

	kind := r.sim.SensorKind()
	tilt := r2.Scale(keyTilt[kind], keyboardTilt())
	// Sample clocks are monotonic and never zero.
	timestamp := time.Since(r.start).Nanoseconds() + 1
	r.sim.HandleSample(sensor.Synthesize(kind, tilt, timestamp))

	r.calculateTransform()
	return nil
}

// keyboardTilt returns the direction the arrow keys (or WASD) point in.
func keyboardTilt() r2.Vec {
	var tilt r2.Vec
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		tilt.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		tilt.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		tilt.Y--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		tilt.Y++
	}
	return tilt
}

// calculateTransform determines the scaling and offset to fit the playfield
// onto the screen while keeping its aspect ratio.
func (r *Renderer) calculateTransform() {
	bounds := r.sim.Bounds()
	worldWidth, worldHeight := bounds.Width(), bounds.Height()
	if r.screenWidth == 0 || r.screenHeight == 0 || worldWidth == 0 || worldHeight == 0 {
		r.scale, r.offsetX, r.offsetY = 1, 0, 0
		return
	}

	r.scale = math.Min(float64(r.screenWidth)/worldWidth, float64(r.screenHeight)/worldHeight)
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		r.scale = 1.0
	}

	// Center the playfield
	r.offsetX = (float64(r.screenWidth)-worldWidth*r.scale)/2 - bounds.Left*r.scale
	r.offsetY = (float64(r.screenHeight)-worldHeight*r.scale)/2 - bounds.Top*r.scale
}

// worldToScreen converts playfield coordinates to screen coordinates.
func (r *Renderer) worldToScreen(worldX, worldY float64) (float32, float32) {
	return float32(worldX*r.scale + r.offsetX), float32(worldY*r.scale + r.offsetY)
}

// Draw is called every frame to render the simulation.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	for _, wall := range r.sim.Walls() {
		x, y := r.worldToScreen(wall.Left, wall.Top)
		vector.DrawFilledRect(screen, x, y, float32(wall.Width()*r.scale), float32(wall.Height()*r.scale), wallColor, false)
	}

	center, radius := r.sim.Ball()
	cx, cy := r.worldToScreen(center.X, center.Y)
	vector.DrawFilledCircle(screen, cx, cy, float32(radius*r.scale), ballColor, true)

	if r.showDebug {
		r.drawDebugInfo(screen)
	}
}

func (r *Renderer) drawDebugInfo(screen *ebiten.Image) {
	snap := r.sim.Snapshot()
	tel := r.sim.Telemetry()

	msg := fmt.Sprintf("FPS: %.1f, TPS: %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	msg += fmt.Sprintf("Sensor: %s\n", r.sim.SensorKind())
	msg += fmt.Sprintf("Pos: %s Vel: %s\n", common.Format(snap.Position), common.Format(snap.Velocity))
	msg += fmt.Sprintf("Samples: %d (ignored %d), collisions: %d\n", tel.Accepted, tel.Ignored, tel.Collisions)
	if tel.SampleRate > 0 {
		msg += fmt.Sprintf("Rate: %.1f Hz, interval %s ± %s\n", tel.SampleRate, tel.MeanInterval, tel.StdDevInterval)
	}
	msg += "Arrows/WASD tilt, R reset, F1 debug, Esc quit"

	ebitenutil.DebugPrint(screen, msg)
}

// Layout is called when the window size changes.
func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	r.screenWidth = outsideWidth
	r.screenHeight = outsideHeight
	// The transform (scale, offset) will be recalculated in Update based on new screen size
	return r.screenWidth, r.screenHeight
}

// Run opens a width x height window and blocks until it is closed.
func Run(sim *simulation.Simulation, title string, width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid window size %dx%d", width, height)
	}
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(NewRenderer(sim)); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("render loop failed: %w", err)
	}
	return nil
}
