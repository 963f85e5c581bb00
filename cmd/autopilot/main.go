// Command autopilot plays a Retro Snake session on a running server.
//
// Each tick it turns toward the food along the safe direction that brings the
// head closest to it, then advances the game by one step over the REST API.
// Open the session in a browser (/ws?session=<id>) to watch it play.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/retro-snake/game/engine"
	"github.com/wricardo/retro-snake/game/service"
)

// Client talks to the game server's REST API for a single session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends a JSON request and decodes the JSON response into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// CreateSession starts a new session from a preset and remembers its ID
func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.Snapshot, error) {
	var info service.SessionInfo
	req := map[string]string{"config_id": configID}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if info.Snapshot == nil {
		return nil, fmt.Errorf("create session: response has no snapshot")
	}
	c.sessionID = info.ID
	return info.Snapshot, nil
}

func (c *Client) State(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, c.sessionPath("state"), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Input(ctx context.Context, event engine.Event) (*service.InputResult, error) {
	var result service.InputResult
	req := map[string]string{"event": string(event)}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("input"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Tick(ctx context.Context, steps int) (*service.TickResult, error) {
	var result service.TickResult
	req := map[string]int{"steps": steps}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("tick"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Restart(ctx context.Context) (*engine.Snapshot, error) {
	var resp struct {
		Snapshot *engine.Snapshot `json:"snapshot"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("restart"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Snapshot, nil
}

func (c *Client) sessionPath(op string) string {
	return fmt.Sprintf("/api/sessions/%s/%s", c.sessionID, op)
}

// Choose picks the heading for the next tick: the safe direction whose next
// cell is nearest the food. Ties go to the earlier entry of engine.Directions,
// so food straight behind the head makes the snake turn instead of running on.
// With no safe direction the current heading is kept.
func Choose(snap *engine.Snapshot) engine.Direction {
	safe := engine.SafeDirections(*snap)
	if len(safe) == 0 {
		return snap.Direction
	}

	head := snap.Snake[0]
	best := safe[0]
	bestDist := -1
	for _, d := range safe {
		dx, dy := d.Delta()
		dist := engine.ManhattanDistance(head.Add(dx, dy), snap.Food)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// Options controls a run of the autopilot
type Options struct {
	MaxTicks int
	Rounds   int
	Delay    time.Duration
}

// Round is the outcome of one played round
type Round struct {
	Score   int
	Ticks   int
	Cause   engine.Cause
	Victory bool
}

// Play runs opts.Rounds rounds on the client's session, restarting between
// them, and returns one Round per round played.
func Play(ctx context.Context, c *Client, snap *engine.Snapshot, opts Options) ([]Round, error) {
	var rounds []Round
	for r := 1; r <= opts.Rounds; r++ {
		if r > 1 {
			var err error
			if snap, err = c.Restart(ctx); err != nil {
				return rounds, fmt.Errorf("restart: %w", err)
			}
		}

		final, err := playRound(ctx, c, snap, opts)
		if err != nil {
			return rounds, err
		}
		round := Round{Score: final.Score, Ticks: final.Ticks, Cause: final.Cause, Victory: final.Victory}
		rounds = append(rounds, round)

		log.Info().
			Str("session", c.sessionID).
			Int("round", r).
			Int("score", round.Score).
			Int("ticks", round.Ticks).
			Str("cause", string(round.Cause)).
			Msg("round finished")
	}
	return rounds, nil
}

func playRound(ctx context.Context, c *Client, snap *engine.Snapshot, opts Options) (*engine.Snapshot, error) {
	for !snap.GameOver && snap.Ticks < opts.MaxTicks {
		if err := ctx.Err(); err != nil {
			return snap, nil
		}

		if dir := Choose(snap); dir != snap.Direction {
			if _, err := c.Input(ctx, engine.Event(dir)); err != nil {
				return nil, fmt.Errorf("input %s: %w", dir, err)
			}
		}

		result, err := c.Tick(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("tick: %w", err)
		}
		for _, ev := range result.Events {
			if ev.Type == "food" {
				log.Debug().Int("tick", ev.Tick).Int("score", ev.Score).Msg("ate food")
			}
		}
		snap = result.Snapshot

		if opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
			}
		}
	}
	return snap, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	client := NewClient(cmd.String("url"))
	log.Info().Str("url", client.baseURL).Msg("connecting to game server")

	snap, err := client.CreateSession(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	log.Info().
		Str("session", client.sessionID).
		Str("config", snap.ConfigName).
		Msgf("watch at %s/ws?session=%s", client.baseURL, client.sessionID)

	rounds, err := Play(ctx, client, snap, Options{
		MaxTicks: cmd.Int("max-ticks"),
		Rounds:   cmd.Int("rounds"),
		Delay:    cmd.Duration("delay"),
	})
	if err != nil {
		return err
	}

	best := 0
	for _, r := range rounds {
		if r.Score > best {
			best = r.Score
		}
	}
	log.Info().Str("session", client.sessionID).Int("best", best).Int("rounds", len(rounds)).Msg("done")
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autopilot",
		Usage: "play a Retro Snake session on a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("SNAKE_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset to play (server default when empty)", Sources: cli.EnvVars("PRESET")},
			&cli.IntFlag{Name: "max-ticks", Value: 5000, Usage: "tick limit per round"},
			&cli.IntFlag{Name: "rounds", Value: 1, Usage: "rounds to play, restarting in between"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between ticks, e.g. 100ms"},
			&cli.BoolFlag{Name: "debug", Usage: "log every food eaten"},
		},
		Action: run,
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("autopilot failed")
	}
}
