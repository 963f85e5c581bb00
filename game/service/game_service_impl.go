package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/retro-snake/game/engine"
)

var (
	// ErrInvalidSteps is returned by Tick for a negative step count
	ErrInvalidSteps = errors.New("steps must not be negative")

	// ErrConfigNotFound is returned by a ConfigManager for an unknown preset
	ErrConfigNotFound = errors.New("configuration not found")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	notifier Notifier

	// mu serializes every engine access
	mu sync.RWMutex

	clockMu sync.Mutex
	clocks  map[string]context.CancelFunc
	clockWg sync.WaitGroup
}

// NewGameService creates a new game service instance. notifier may be nil.
func NewGameService(sessions SessionManager, configs ConfigManager, notifier Notifier) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		notifier: notifier,
		clocks:   make(map[string]context.CancelFunc),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	configID := strings.TrimSuffix(configName, ".json")
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configID, err, configIDs)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configIDFor(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configID

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session started")
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// Touching the session writes LastAccessedAt, which sessionInfo reads
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession stops the session's clock and removes it
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.stopClock(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Input applies one input event to a session's engine
func (s *gameServiceImpl) Input(ctx context.Context, sessionID, event string) (*InputResult, error) {
	s.mu.Lock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sessionID = sess.ID

	ev, ok := engine.ParseEvent(event)
	if !ok {
		snap := sess.Engine.Snapshot()
		s.mu.Unlock()
		return &InputResult{
			Event:    event,
			Accepted: false,
			Message:  fmt.Sprintf("unknown event %q (use up, down, left, right, restart or quit)", event),
			Snapshot: &snap,
		}, nil
	}

	accepted := sess.Engine.HandleInput(ev)
	snap := sess.Engine.Snapshot()
	result := &InputResult{
		Event:    string(ev),
		Accepted: accepted,
		Message:  snap.Message,
		Snapshot: &snap,
	}

	closing := accepted && sess.Engine.QuitRequested()
	if closing {
		s.sessions.Delete(sessionID)
		result.Closed = true
		result.Events = append(result.Events, GameEvent{
			Type:      EventSessionClosed,
			Message:   "Player quit from the game-over screen",
			Timestamp: time.Now(),
			Tick:      snap.Ticks,
			Score:     snap.Score,
		})
	} else if accepted && ev == engine.EventRestart {
		result.Events = append(result.Events, GameEvent{
			Type:      EventRestart,
			Message:   "New round started",
			Timestamp: time.Now(),
			Score:     0,
		})
	}
	s.mu.Unlock()

	if closing {
		s.stopClock(sessionID)
		s.notifyEvent(sessionID, EventSessionClosed, result.Events[0])
		log.Info().Str("session", sessionID).Int("score", snap.Score).Msg("session closed by player")
		return result, nil
	}

	if accepted {
		s.notify(sessionID, &snap)
	}
	return result, nil
}

// Tick advances a session by up to MaxTickBatch ticks, stopping at game over
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, steps int) (*TickResult, error) {
	if steps < 0 {
		return nil, ErrInvalidSteps
	}
	requested := steps
	if steps == 0 {
		steps = 1
		requested = 1
	}

	result := &TickResult{
		StepsRequested: requested,
		Events:         []GameEvent{},
	}
	if steps > engine.MaxTickBatch {
		steps = engine.MaxTickBatch
		result.Truncated = true
		result.Limit = engine.MaxTickBatch
	}

	s.mu.Lock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sessionID = sess.ID

	startScore := sess.Engine.GetScore()
	for i := 0; i < steps; i++ {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = EventGameOver
			break
		}
		if ctx.Err() != nil {
			result.StoppedReason = "cancelled"
			break
		}

		tr := sess.Engine.Tick()
		result.StepsExecuted++
		result.Events = append(result.Events, tickEvents(sess.Engine, tr)...)
	}
	result.ScoreDelta = sess.Engine.GetScore() - startScore
	snap := sess.Engine.Snapshot()
	result.Snapshot = &snap
	s.mu.Unlock()

	if result.StepsExecuted > 0 {
		s.notify(sessionID, &snap)
	}
	return result, nil
}

// Restart resets a session to a fresh round from any phase
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sessionID = sess.ID

	sess.Engine.Reset()
	snap := sess.Engine.Snapshot()
	s.mu.Unlock()

	s.notify(sessionID, &snap)
	return &snap, nil
}

// GetSnapshot returns the renderable state of a session
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// StartClock ticks the session in the background at its preset tick rate.
// Starting a running clock is a no-op.
func (s *gameServiceImpl) StartClock(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	if _, running := s.clocks[sess.ID]; running {
		return nil
	}

	// The clock outlives the request that started it
	clockCtx, cancel := context.WithCancel(context.Background())
	s.clocks[sess.ID] = cancel

	interval := time.Second / time.Duration(sess.Config.TickRate)
	s.clockWg.Add(1)
	go s.runClock(clockCtx, sess.ID, interval)

	log.Info().Str("session", sess.ID).Dur("interval", interval).Msg("clock started")
	return nil
}

// StopClock stops the session's clock; stopping a stopped clock is a no-op
func (s *gameServiceImpl) StopClock(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.stopClock(sess.ID)
	return nil
}

// Shutdown stops all clocks
func (s *gameServiceImpl) Shutdown() {
	s.clockMu.Lock()
	for id, cancel := range s.clocks {
		cancel()
		delete(s.clocks, id)
	}
	s.clockMu.Unlock()

	s.clockWg.Wait()
}

func (s *gameServiceImpl) runClock(ctx context.Context, sessionID string, interval time.Duration) {
	defer s.clockWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			s.mu.Unlock()
			log.Debug().Str("session", sessionID).Msg("clock stopping, session gone")
			s.stopClock(sessionID)
			return
		}
		// A finished round waits for restart; nothing to publish
		if sess.Engine.IsGameOver() {
			s.mu.Unlock()
			continue
		}
		tr := sess.Engine.Tick()
		events := tickEvents(sess.Engine, tr)
		snap := sess.Engine.Snapshot()
		s.mu.Unlock()

		s.notify(sessionID, &snap)
		for _, ev := range events {
			s.notifyEvent(sessionID, ev.Type, ev)
		}
	}
}

func (s *gameServiceImpl) stopClock(sessionID string) {
	key := strings.ToLower(sessionID)

	s.clockMu.Lock()
	cancel, running := s.clocks[key]
	delete(s.clocks, key)
	s.clockMu.Unlock()

	if running {
		cancel()
		log.Info().Str("session", key).Msg("clock stopped")
	}
}

func (s *gameServiceImpl) clockRunning(sessionID string) bool {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	_, running := s.clocks[sessionID]
	return running
}

// ListConfigs lists the available presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a preset by ID
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig stores a preset under the given ID
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// configIDFor returns the config_id for a display name, used for sessions
// created from the default preset
func (s *gameServiceImpl) configIDFor(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return strings.ToLower(configName)
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	snap := sess.Engine.Snapshot()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		ClockRunning:   s.clockRunning(sess.ID),
		Snapshot:       &snap,
		GameConfig:     sess.Config,
	}
}

func (s *gameServiceImpl) notify(sessionID string, snap *engine.Snapshot) {
	if s.notifier != nil {
		s.notifier.BroadcastSnapshot(sessionID, snap)
	}
}

func (s *gameServiceImpl) notifyEvent(sessionID, event string, data interface{}) {
	if s.notifier != nil {
		s.notifier.BroadcastEvent(sessionID, event, data)
	}
}

// tickEvents turns a tick result into the events worth reporting
func tickEvents(eng *engine.GameEngine, tr engine.TickResult) []GameEvent {
	state := eng.GetState()
	var events []GameEvent

	if tr.Ate {
		head := state.Head()
		events = append(events, GameEvent{
			Type:      EventFood,
			Message:   state.Message,
			Timestamp: time.Now(),
			Tick:      state.Ticks,
			Score:     tr.Score,
			Cell:      &head,
		})
	}
	if tr.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   state.Message,
			Timestamp: time.Now(),
			Tick:      state.Ticks,
			Score:     tr.Score,
			Cause:     tr.Cause,
		})
	}
	return events
}
