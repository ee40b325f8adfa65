// Package config provides Viper-based configuration loading for the
// simulation server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/movement"
	"github.com/cory-johannsen/actioncore/internal/game/npc"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// SampleInitial and SampleThereafter configure per-second sampling of
	// repeated messages. Zero SampleInitial disables sampling.
	SampleInitial    int `mapstructure:"sample_initial"`
	SampleThereafter int `mapstructure:"sample_thereafter"`
}

// JournalConfig controls the encounter journal.
type JournalConfig struct {
	// Enabled turns on recording. The database section is only validated
	// when the journal is enabled.
	Enabled bool `mapstructure:"enabled"`
	// BufferSize is the number of records queued before new ones are dropped.
	BufferSize int `mapstructure:"buffer_size"`
	// WriteTimeout bounds one repository write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SceneConfig describes one play area and what populates it.
type SceneConfig struct {
	ID string `mapstructure:"id"`
	// Terrain is an OBJ mesh path. Empty or unreadable falls back to a flat
	// quad covering Bounds.
	Terrain     string     `mapstructure:"terrain"`
	Scale       float64    `mapstructure:"scale"`
	Translation [3]float64 `mapstructure:"translation"`
	BoundsMin   [3]float64 `mapstructure:"bounds_min"`
	BoundsMax   [3]float64 `mapstructure:"bounds_max"`
	// PlayerSpawn places the scene's player; nil means no player.
	PlayerSpawn *[3]float64      `mapstructure:"player_spawn"`
	Spawns      []npc.SpawnPoint `mapstructure:"spawns"`
}

// SimulationConfig controls the fixed-step loop.
type SimulationConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed fixes the random source; zero uses a crypto source.
	Seed     uint64          `mapstructure:"seed"`
	Movement movement.Params `mapstructure:"movement"`
	Scenes   []SceneConfig   `mapstructure:"scenes"`
}

// ContentConfig locates hot-reloadable content.
type ContentConfig struct {
	SkillDir    string        `mapstructure:"skill_dir"`
	TemplateDir string        `mapstructure:"template_dir"`
	ScriptDir   string        `mapstructure:"script_dir"`
	Watch       bool          `mapstructure:"watch"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// ScriptingConfig bounds Lua execution.
type ScriptingConfig struct {
	// InstructionLimit is the per-call instruction budget; zero is unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig       `mapstructure:"logging"`
	Database   DatabaseConfig      `mapstructure:"database"`
	Journal    JournalConfig       `mapstructure:"journal"`
	Simulation SimulationConfig    `mapstructure:"simulation"`
	AI         ai.BossConfig       `mapstructure:"ai"`
	Player     entity.PlayerConfig `mapstructure:"player"`
	Content    ContentConfig       `mapstructure:"content"`
	Scripting  ScriptingConfig     `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	check := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	check(validateLogging(c.Logging))
	if c.Journal.Enabled {
		check(validateDatabase(c.Database))
	}
	check(validateJournal(c.Journal))
	check(validateSimulation(c.Simulation))
	check(validateAI(c.AI))
	check(validatePlayer(c.Player))
	check(validateContent(c.Content))
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.SampleInitial < 0 || l.SampleThereafter < 0 {
		return fmt.Errorf("logging sampling values must be >= 0")
	}
	return nil
}

func validateJournal(j JournalConfig) error {
	var errs []string
	if j.BufferSize < 1 {
		errs = append(errs, fmt.Sprintf("journal.buffer_size must be >= 1, got %d", j.BufferSize))
	}
	if j.WriteTimeout <= 0 {
		errs = append(errs, "journal.write_timeout must be positive")
	}
	return joined(errs)
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, "simulation.tick_interval must be positive")
	}
	if s.Movement.Gravity < 0 {
		errs = append(errs, "simulation.movement.gravity must be >= 0")
	}
	if s.Movement.StepHeight < 0 {
		errs = append(errs, "simulation.movement.step_height must be >= 0")
	}
	if s.Movement.ProbeHeight <= 0 {
		errs = append(errs, "simulation.movement.probe_height must be positive")
	}
	seen := make(map[string]bool, len(s.Scenes))
	for i, sc := range s.Scenes {
		if sc.ID == "" {
			errs = append(errs, fmt.Sprintf("simulation.scenes[%d].id must not be empty", i))
			continue
		}
		if seen[sc.ID] {
			errs = append(errs, fmt.Sprintf("simulation.scenes: duplicate id %q", sc.ID))
		}
		seen[sc.ID] = true
		if sc.Scale < 0 {
			errs = append(errs, fmt.Sprintf("simulation.scenes[%s].scale must be >= 0", sc.ID))
		}
		for axis := 0; axis < 3; axis++ {
			if sc.BoundsMin[axis] > sc.BoundsMax[axis] {
				errs = append(errs, fmt.Sprintf("simulation.scenes[%s]: bounds_min exceeds bounds_max on axis %d", sc.ID, axis))
			}
		}
		for j, sp := range sc.Spawns {
			if sp.TemplateID == "" {
				errs = append(errs, fmt.Sprintf("simulation.scenes[%s].spawns[%d].template must not be empty", sc.ID, j))
			}
			if sp.Max < 1 {
				errs = append(errs, fmt.Sprintf("simulation.scenes[%s].spawns[%d].max must be >= 1", sc.ID, j))
			}
		}
	}
	return joined(errs)
}

func validateAI(a ai.BossConfig) error {
	var errs []string
	if a.ThinkInterval <= 0 {
		errs = append(errs, "ai.think_interval must be positive")
	}
	if a.PhaseTwoThreshold < 0 || a.PhaseTwoThreshold > 1 {
		errs = append(errs, fmt.Sprintf("ai.phase_two_threshold must be within [0, 1], got %g", a.PhaseTwoThreshold))
	}
	if a.IntentBias < 1 {
		errs = append(errs, fmt.Sprintf("ai.intent_bias must be >= 1, got %g", a.IntentBias))
	}
	return joined(errs)
}

func validatePlayer(p entity.PlayerConfig) error {
	var errs []string
	if p.MaxHealth <= 0 {
		errs = append(errs, "player.max_health must be positive")
	}
	if p.WalkSpeed <= 0 || p.RunSpeed < p.WalkSpeed {
		errs = append(errs, "player.walk_speed must be positive and not exceed player.run_speed")
	}
	if p.ComboOpen < 0 || p.ComboOpen > p.ComboClose || p.ComboClose > 1 {
		errs = append(errs, "player combo window must satisfy 0 <= combo_open <= combo_close <= 1")
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	if c.Debounce < 0 {
		return fmt.Errorf("content.debounce must not be negative")
	}
	if c.Watch && c.SkillDir == "" && c.ScriptDir == "" {
		return fmt.Errorf("content.watch requires content.skill_dir or content.script_dir")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ACTIONCORE_ prefix
	v.SetEnvPrefix("ACTIONCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) { setDefaults(v) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.sample_initial", 0)
	v.SetDefault("logging.sample_thereafter", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "actioncore")
	v.SetDefault("database.password", "actioncore")
	v.SetDefault("database.name", "actioncore")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.buffer_size", 256)
	v.SetDefault("journal.write_timeout", "2s")

	mv := movement.DefaultParams()
	v.SetDefault("simulation.tick_interval", "16ms")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.movement.gravity", mv.Gravity)
	v.SetDefault("simulation.movement.step_height", mv.StepHeight)
	v.SetDefault("simulation.movement.probe_height", mv.ProbeHeight)

	b := ai.DefaultBossConfig()
	v.SetDefault("ai.think_interval", b.ThinkInterval)
	v.SetDefault("ai.phase_two_threshold", b.PhaseTwoThreshold)
	v.SetDefault("ai.intent_bias", b.IntentBias)
	v.SetDefault("ai.director.phase_min", b.Director.PhaseMin)
	v.SetDefault("ai.director.pressure", b.Director.Pressure)
	v.SetDefault("ai.director.intent_min", b.Director.IntentMin)
	v.SetDefault("ai.director.counter_window", b.Director.CounterWindow)
	v.SetDefault("ai.director.near_range", b.Director.NearRange)

	p := entity.DefaultPlayerConfig()
	v.SetDefault("player.max_health", p.MaxHealth)
	v.SetDefault("player.walk_speed", p.WalkSpeed)
	v.SetDefault("player.run_speed", p.RunSpeed)
	v.SetDefault("player.jump_speed", p.JumpSpeed)
	v.SetDefault("player.roll_duration", p.RollDuration)
	v.SetDefault("player.roll_speed_mul", p.RollSpeedMul)
	v.SetDefault("player.hurt_duration", p.HurtDuration)
	v.SetDefault("player.jump_guard", p.JumpGuard)
	v.SetDefault("player.jump_fallback", p.JumpFallback)
	v.SetDefault("player.combo_open", p.ComboOpen)
	v.SetDefault("player.combo_close", p.ComboClose)
	v.SetDefault("player.attack_end", p.AttackEnd)
	v.SetDefault("player.attack_duration", p.AttackDuration)
	v.SetDefault("player.attack_reach", p.AttackReach)

	v.SetDefault("content.skill_dir", "content/skills")
	v.SetDefault("content.template_dir", "content/templates")
	v.SetDefault("content.script_dir", "content/scripts")
	v.SetDefault("content.watch", false)
	v.SetDefault("content.debounce", "100ms")

	v.SetDefault("scripting.instruction_limit", 100000)
}
