package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/retro-snake/game/engine"
)

// Each board cell is two terminal columns wide so cells look square
const cellColumns = 2

// Board origin on screen: one status row, then the box border
const (
	statusRow = 0
	boxTop    = 1
	boxLeft   = 0
)

// Styles derived from a preset palette
type styles struct {
	board tcell.Style
	box   tcell.Style
	snake tcell.Style
	head  tcell.Style
	food  tcell.Style
	text  tcell.Style
}

func tcellColor(hex string) tcell.Color {
	c := engine.MustColor(hex)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func newStyles(p engine.Palette) styles {
	bg := tcellColor(p.Background)
	base := tcell.StyleDefault.Background(bg)
	return styles{
		board: base.Foreground(tcellColor(p.Grid)),
		box:   base.Foreground(tcellColor(p.Text)),
		snake: base.Foreground(tcellColor(p.Snake)),
		head:  base.Foreground(tcellColor(p.HeadColor())),
		food:  base.Foreground(tcellColor(p.Food)),
		text:  base.Foreground(tcellColor(p.Text)),
	}
}

// Terminal plays one local game on a tcell screen
type Terminal struct {
	screen tcell.Screen
	engine *engine.GameEngine
	styles styles
	tick   time.Duration
}

// New wraps an uninitialized screen. Run initializes and finalizes it.
func New(screen tcell.Screen, eng *engine.GameEngine) *Terminal {
	cfg := eng.GetConfig()
	rate := cfg.TickRate
	if rate <= 0 {
		rate = engine.DefaultTickRate
	}
	return &Terminal{
		screen: screen,
		engine: eng,
		styles: newStyles(cfg.Palette),
		tick:   time.Second / time.Duration(rate),
	}
}

// Run drives the game until the player quits from the game-over screen,
// presses Ctrl-C, or ctx is cancelled. It returns the final score.
func (t *Terminal) Run(ctx context.Context) (int, error) {
	s := t.screen
	if err := s.Init(); err != nil {
		return 0, fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer s.Fini()

	s.DisableMouse()
	s.HideCursor()
	s.SetStyle(t.styles.board)
	s.Clear()

	return t.loop(ctx)
}

// loop runs the event and tick loop on an initialized screen
func (t *Terminal) loop(ctx context.Context) (int, error) {
	s := t.screen

	done := make(chan struct{})
	defer close(done)

	eventCh := make(chan tcell.Event)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	t.Draw()
	for {
		select {
		case <-ctx.Done():
			return t.engine.GetScore(), nil

		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					return t.engine.GetScore(), nil
				}
				if event, ok := EventForKey(ev); ok {
					t.engine.HandleInput(event)
				}
				if t.engine.QuitRequested() {
					log.Info().Int("score", t.engine.GetScore()).Msg("player quit")
					return t.engine.GetScore(), nil
				}
			case *tcell.EventResize:
				s.Sync()
			}

		case <-ticker.C:
			if res := t.engine.Tick(); res.GameOver && res.Moved {
				log.Info().Int("score", res.Score).Str("cause", string(res.Cause)).Msg("game over")
			}
		}
		t.Draw()
	}
}

// EventForKey maps a key press to a game event
func EventForKey(ev *tcell.EventKey) (engine.Event, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return engine.EventUp, true
	case tcell.KeyDown:
		return engine.EventDown, true
	case tcell.KeyLeft:
		return engine.EventLeft, true
	case tcell.KeyRight:
		return engine.EventRight, true
	case tcell.KeyEscape:
		return engine.EventQuit, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return engine.EventUp, true
		case 's', 'S':
			return engine.EventDown, true
		case 'a', 'A':
			return engine.EventLeft, true
		case 'd', 'D':
			return engine.EventRight, true
		case 'r', 'R':
			return engine.EventRestart, true
		case 'q', 'Q':
			return engine.EventQuit, true
		}
	}
	return "", false
}

// cellOrigin returns the screen column and row of a board cell
func cellOrigin(c engine.Cell) (int, int) {
	return boxLeft + 1 + c.X*cellColumns, boxTop + 1 + c.Y
}

// Draw renders the current snapshot and shows it
func (t *Terminal) Draw() {
	snap := t.engine.Snapshot()
	s := t.screen
	s.Clear()

	cfg := t.engine.GetConfig()
	drawText(s, boxLeft, statusRow, t.styles.text, fmt.Sprintf(cfg.Messages.Score, snap.Score))

	right := boxLeft + 1 + snap.Width*cellColumns
	bottom := boxTop + 1 + snap.Height
	drawBox(s, boxLeft, boxTop, right, bottom, t.styles.box, t.styles.board)

	fx, fy := cellOrigin(snap.Food)
	if len(snap.Snake) < snap.Width*snap.Height {
		for i := 0; i < cellColumns; i++ {
			s.SetContent(fx+i, fy, tcell.RuneDiamond, nil, t.styles.food)
		}
	}

	for i := len(snap.Snake) - 1; i >= 0; i-- {
		c := snap.Snake[i]
		// A head that hit the wall sits outside the box
		if c.X < 0 || c.X >= snap.Width || c.Y < 0 || c.Y >= snap.Height {
			continue
		}
		style := t.styles.snake
		if i == 0 {
			style = t.styles.head
		}
		x, y := cellOrigin(c)
		for j := 0; j < cellColumns; j++ {
			s.SetContent(x+j, y, tcell.RuneBlock, nil, style)
		}
	}

	if snap.GameOver {
		t.drawGameOver(snap, right, bottom)
	}

	s.Show()
}

// drawGameOver centres the cause and the restart prompt inside the box
func (t *Terminal) drawGameOver(snap engine.Snapshot, right, bottom int) {
	cfg := t.engine.GetConfig()
	lines := []string{snap.Message, cfg.Messages.GameOver}
	if snap.Message == cfg.Messages.GameOver {
		lines = lines[1:]
	}

	mid := (boxTop + bottom) / 2
	for i, line := range lines {
		x := boxLeft + (right-boxLeft-len([]rune(line)))/2
		if x < boxLeft+1 {
			x = boxLeft + 1
		}
		drawText(t.screen, x, mid-len(lines)/2+i, t.styles.text, line)
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func drawBox(s tcell.Screen, x1, y1, x2, y2 int, border, fill tcell.Style) {
	for row := y1 + 1; row < y2; row++ {
		for col := x1 + 1; col < x2; col++ {
			s.SetContent(col, row, ' ', nil, fill)
		}
	}

	for col := x1; col <= x2; col++ {
		s.SetContent(col, y1, tcell.RuneHLine, nil, border)
		s.SetContent(col, y2, tcell.RuneHLine, nil, border)
	}
	for row := y1 + 1; row < y2; row++ {
		s.SetContent(x1, row, tcell.RuneVLine, nil, border)
		s.SetContent(x2, row, tcell.RuneVLine, nil, border)
	}

	s.SetContent(x1, y1, tcell.RuneULCorner, nil, border)
	s.SetContent(x2, y1, tcell.RuneURCorner, nil, border)
	s.SetContent(x1, y2, tcell.RuneLLCorner, nil, border)
	s.SetContent(x2, y2, tcell.RuneLRCorner, nil, border)
}
