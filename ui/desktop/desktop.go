package desktop

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/wricardo/retro-snake/game/engine"
)

const (
	WindowTitle = "Retro Snake Game"

	// Update runs at this rate; the engine ticks at the preset rate
	updatesPerSecond = 60
)

var face font.Face = basicfont.Face7x13

type colors struct {
	background color.RGBA
	grid       color.RGBA
	snake      color.RGBA
	head       color.RGBA
	food       color.RGBA
	text       color.RGBA
}

// Game adapts a GameEngine to ebiten's Update/Draw/Layout loop
type Game struct {
	engine *engine.GameEngine
	colors colors

	width, height int

	// Accumulates the tick rate each update; a tick fires per updatesPerSecond
	acc      int
	tickRate int
}

// NewGame builds the ebiten adapter for an engine
func NewGame(eng *engine.GameEngine) *Game {
	cfg := eng.GetConfig()
	p := cfg.Palette
	w, h := cfg.Dimensions()

	rate := cfg.TickRate
	if rate <= 0 || rate > updatesPerSecond {
		rate = engine.DefaultTickRate
	}

	return &Game{
		engine: eng,
		colors: colors{
			background: engine.MustColor(p.Background),
			grid:       engine.MustColor(p.Grid),
			snake:      engine.MustColor(p.Snake),
			head:       engine.MustColor(p.HeadColor()),
			food:       engine.MustColor(p.Food),
			text:       engine.MustColor(p.Text),
		},
		width:    w * engine.CellSize,
		height:   h * engine.CellSize,
		tickRate: rate,
	}
}

// Run opens the window and plays until the player quits or closes it.
// It returns the final score.
func Run(eng *engine.GameEngine) (int, error) {
	g := NewGame(eng)

	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(WindowTitle)
	ebiten.SetTPS(updatesPerSecond)

	err := ebiten.RunGame(g)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return eng.GetScore(), err
	}
	return eng.GetScore(), nil
}

// Update reads input, then advances the engine when a tick is due
func (g *Game) Update() error {
	for _, ev := range pressedEvents() {
		g.engine.HandleInput(ev)
	}
	if g.engine.QuitRequested() {
		log.Info().Int("score", g.engine.GetScore()).Msg("player quit")
		return ebiten.Termination
	}

	g.acc += g.tickRate
	if g.acc >= updatesPerSecond {
		g.acc -= updatesPerSecond
		if res := g.engine.Tick(); res.GameOver && res.Moved {
			log.Info().Int("score", res.Score).Str("cause", string(res.Cause)).Msg("game over")
		}
	}
	return nil
}

// pressedEvents maps keys pressed this frame to engine events
func pressedEvents() []engine.Event {
	bindings := []struct {
		keys  []ebiten.Key
		event engine.Event
	}{
		{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}, engine.EventUp},
		{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}, engine.EventDown},
		{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}, engine.EventLeft},
		{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}, engine.EventRight},
		{[]ebiten.Key{ebiten.KeyR}, engine.EventRestart},
		{[]ebiten.Key{ebiten.KeyQ, ebiten.KeyEscape}, engine.EventQuit},
	}

	var events []engine.Event
	for _, b := range bindings {
		for _, k := range b.keys {
			if inpututil.IsKeyJustPressed(k) {
				events = append(events, b.event)
				break
			}
		}
	}
	return events
}

// Draw renders the board, the score and the game-over overlay
func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.engine.Snapshot()
	size := float32(engine.CellSize)

	screen.Fill(g.colors.background)

	w, h := float32(g.width), float32(g.height)
	for x := 0; x <= snap.Width; x++ {
		x1 := float32(x) * size
		vector.StrokeLine(screen, x1, 0, x1, h, 1, g.colors.grid, false)
	}
	for y := 0; y <= snap.Height; y++ {
		y1 := float32(y) * size
		vector.StrokeLine(screen, 0, y1, w, y1, 1, g.colors.grid, false)
	}

	if len(snap.Snake) < snap.Width*snap.Height {
		vector.DrawFilledRect(screen, float32(snap.Food.X)*size, float32(snap.Food.Y)*size, size, size, g.colors.food, false)
	}

	for i := len(snap.Snake) - 1; i >= 0; i-- {
		c := snap.Snake[i]
		clr := g.colors.snake
		if i == 0 {
			clr = g.colors.head
		}
		vector.DrawFilledRect(screen, float32(c.X)*size, float32(c.Y)*size, size, size, clr, false)
	}

	cfg := g.engine.GetConfig()
	ascent := face.Metrics().Ascent.Ceil()
	text.Draw(screen, fmt.Sprintf(cfg.Messages.Score, snap.Score), face, 10, 10+ascent, g.colors.text)

	if snap.GameOver {
		g.drawCentered(screen, snap.Message, g.height/2-20)
		g.drawCentered(screen, cfg.Messages.GameOver, g.height/2)
	}
}

func (g *Game) drawCentered(screen *ebiten.Image, msg string, y int) {
	if msg == "" {
		return
	}
	bounds := text.BoundString(face, msg)
	x := (g.width - bounds.Dx()) / 2
	text.Draw(screen, msg, face, x, y, g.colors.text)
}

// Layout keeps a fixed logical screen and lets ebiten scale the window
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
