package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/service"
	"go.uber.org/zap"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultBoard is the board used when a session names none
const DefaultBoard = "easy"

// Manager handles board configuration loading and caching
type Manager struct {
	configDir     string
	defaultName   string
	defaultConfig *engine.BoardConfig
	configs       map[string]*engine.BoardConfig
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.BoardConfig),
		logger:    logger,
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a board by name. Files in the config directory win over
// the built-in levels of the same name.
func (m *Manager) LoadConfig(name string) (*engine.BoardConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" {
		return nil, fmt.Errorf("%w: board name is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid board name %q", ErrInvalidConfig, name)
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	config, err := engine.LoadBoardConfig(m.path(name))
	switch {
	case err == nil:
	case os.IsNotExist(err):
		builtin, builtinErr := engine.BuiltinBoardConfig(engine.Level(name))
		if builtinErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		config = builtin
	case errors.Is(err, engine.ErrInvalidBoard):
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	default:
		return nil, fmt.Errorf("failed to load board %s: %w", name, err)
	}

	m.configs[name] = config
	return config, nil
}

// ListConfigs returns information about all available boards, built-in levels
// first
func (m *Manager) ListConfigs() ([]*service.BoardInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var boards []*service.BoardInfo

	for _, level := range engine.BuiltinLevels() {
		name := string(level)
		config, err := m.LoadConfig(name)
		if err != nil {
			m.logger.Warn("skipping invalid board", zap.String("board", name), zap.Error(err))
			continue
		}
		info := boardInfo(name, config)
		if _, statErr := os.Stat(m.path(name)); statErr != nil {
			info.Filename = ""
		}
		info.Builtin = true
		boards = append(boards, info)
		seen[name] = true
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid boards
			m.logger.Warn("skipping invalid board", zap.String("board", name), zap.Error(err))
			continue
		}
		boards = append(boards, boardInfo(name, config))
	}

	return boards, nil
}

// GetDefault returns the default board
func (m *Manager) GetDefault() *engine.BoardConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultName returns the identifier of the default board
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default board by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, ".json")
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached boards and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.BoardConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// SaveConfig validates a board and writes it to the config directory.
// Built-in levels cannot be replaced or imitated with a different table.
func (m *Manager) SaveConfig(name string, config *engine.BoardConfig) error {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid board name %q", ErrInvalidConfig, name)
	}
	for _, level := range engine.BuiltinLevels() {
		if strings.EqualFold(name, string(level)) {
			return fmt.Errorf("%w: board name %q is reserved for a built-in level", ErrInvalidConfig, name)
		}
	}
	if err := engine.ValidateBoardConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if config.Level != "" && !engine.MatchesBuiltin(config) {
		return fmt.Errorf("%w: board claims level %q but its table differs from the built-in one", ErrInvalidConfig, config.Level)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = config
	m.mu.Unlock()

	m.logger.Info("board saved", zap.String("board", name), zap.Int("final_square", config.FinalSquare))
	return nil
}

// loadDefaultConfig loads the default board, falling back to the built-in
// easy level when the file is missing or broken
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultBoard)
	if err != nil {
		m.logger.Warn("default board unavailable, using built-in", zap.String("board", DefaultBoard), zap.Error(err))
		config, err = engine.BuiltinBoardConfig(engine.LevelEasy)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = DefaultBoard
	m.defaultConfig = config
	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.configDir, name+".json")
}

func boardInfo(name string, config *engine.BoardConfig) *service.BoardInfo {
	return &service.BoardInfo{
		Filename:     name + ".json",
		BoardID:      name,
		Name:         config.Name,
		Description:  config.Description,
		Level:        config.Level,
		FinalSquare:  config.FinalSquare,
		Columns:      config.Columns,
		SpecialCount: len(config.SpecialMoves),
	}
}
