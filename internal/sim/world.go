package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/config"
	"github.com/cory-johannsen/actioncore/internal/content"
	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/npc"
	"github.com/cory-johannsen/actioncore/internal/game/scene"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
	"github.com/cory-johannsen/actioncore/internal/scripting"
)

// World is every scene of a running simulation with the content they share.
//
// Invariant: all scenes share Bus; each scene is stepped only by Ticker.
type World struct {
	Bus      *event.Bus
	Scenes   *scene.Manager
	Ticker   *Ticker
	Tables   *skill.Registry
	Catalog  *npc.Catalog
	Scripts  *scripting.Manager
	Reloader *content.Reloader

	roller *dice.Roller
	logger *zap.Logger
}

// NewWorld loads content and builds every configured scene.
//
// Precondition: cfg must be valid.
// Postcondition: every scene is populated, registered on the ticker and
// receives reloaded skill tables. Missing content directories are skipped
// with a warning; malformed content is an error.
func NewWorld(cfg config.Config, logger *zap.Logger) (*World, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var src dice.Source
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	w := &World{
		Bus:    event.NewBus(),
		Scenes: scene.NewManager(),
		Ticker: NewTicker(cfg.Simulation.TickInterval, logger),
		Tables: skill.NewRegistry(),
		roller: dice.NewLoggedRoller(src, logger),
		logger: logger,
	}
	w.Catalog = npc.NewCatalog(w.Tables)

	if err := w.loadTables(cfg.Content.SkillDir); err != nil {
		return nil, err
	}
	if err := w.loadTemplates(cfg.Content.TemplateDir, cfg.AI); err != nil {
		return nil, err
	}
	if cfg.Content.ScriptDir != "" {
		w.Scripts = scripting.NewManager(w.roller, logger)
	}
	w.Reloader = content.NewReloader(w.Tables, w.Scripts, cfg.Scripting.InstructionLimit, logger)
	if err := w.loadScripts(cfg.Content.ScriptDir); err != nil {
		w.Close()
		return nil, err
	}
	w.Reloader.OnTable(w.broadcastTable)

	spawner := scene.NewSpawner(w.Catalog, w.roller, nil, logger)
	spawner.OnSpawn(w.attachScript)
	for _, sc := range cfg.Simulation.Scenes {
		if err := w.addScene(sc, cfg, spawner); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

func missing(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func (w *World) loadTables(dir string) error {
	if dir == "" {
		return nil
	}
	tables, err := skill.LoadTables(dir)
	if missing(err) {
		w.logger.Warn("skill table dir missing", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := w.Tables.Register(t); err != nil {
			return err
		}
	}
	w.logger.Info("skill tables loaded", zap.Strings("tables", w.Tables.IDs()))
	return nil
}

func (w *World) loadTemplates(dir string, aiDefaults ai.BossConfig) error {
	if dir == "" {
		return nil
	}
	tmpls, err := npc.LoadTemplates(dir)
	if missing(err) {
		w.logger.Warn("template dir missing", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return err
	}
	for _, tmpl := range tmpls {
		if tmpl.Kind == npc.KindBoss && tmpl.Boss.AI == (ai.BossConfig{}) {
			tmpl.Boss.AI = aiDefaults
		}
		if err := w.Catalog.Add(tmpl); err != nil {
			return err
		}
	}
	w.logger.Info("templates loaded", zap.Strings("templates", w.Catalog.IDs()))
	return nil
}

func (w *World) loadScripts(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if missing(err) {
		w.logger.Warn("script dir missing", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading script dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.Reloader.Reload(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) addScene(sc config.SceneConfig, cfg config.Config, spawner *scene.Spawner) error {
	bounds := geom.NewAABB(geom.Vec3(sc.BoundsMin), geom.Vec3(sc.BoundsMax))
	var terrain *collision.Terrain
	if sc.Terrain != "" {
		scale := sc.Scale
		if scale == 0 {
			scale = 1
		}
		xf := collision.Transform{Scale: scale, Translation: geom.Vec3(sc.Translation)}
		terrain = collision.LoadTerrain(sc.Terrain, xf, bounds, w.logger)
	} else {
		terrain = collision.FlatTerrain(bounds)
	}

	s := scene.New(sc.ID, scene.Options{
		Terrain:  terrain,
		Movement: cfg.Simulation.Movement,
		Bus:      w.Bus,
		Logger:   w.logger,
	})
	s.SetSpawner(spawner)
	respawn := npc.NewRespawnManager(map[string][]npc.SpawnPoint{sc.ID: sc.Spawns}, w.Catalog)
	s.SetRespawn(respawn)

	if sc.PlayerSpawn != nil {
		deps := s.Deps()
		deps.Roller = w.roller
		p := entity.NewPlayer("player", geom.Vec3(*sc.PlayerSpawn), nil, combat.DefaultStats(), cfg.Player, deps)
		if err := s.Add(p); err != nil {
			return err
		}
	}
	respawn.Populate(sc.ID, s)

	if err := w.Scenes.Add(s); err != nil {
		s.Close()
		return err
	}
	w.Ticker.RegisterScene(s)
	w.logger.Info("scene ready",
		zap.String("scene", sc.ID),
		zap.Int("actors", len(s.Actors())),
		zap.Bool("flat_terrain", terrain.IsFallback()),
	)
	return nil
}

// attachScript gives every boss a Lua selector keyed by its skill table. The
// hook is a no-op until a script with that key is loaded.
func (w *World) attachScript(_ *scene.Scene, _ string, a entity.Actor) {
	b, ok := a.(*entity.Boss)
	if !ok || w.Scripts == nil {
		return
	}
	key := b.Brain().Table().ID
	b.Brain().SetSelector(ai.NewScriptedSelector(w.Scripts, key, w.logger))
}

// broadcastTable hands a reloaded table to every boss using it, on each
// scene's own goroutine.
func (w *World) broadcastTable(t *skill.Table) {
	for _, id := range w.Scenes.IDs() {
		s, err := w.Scenes.Get(id)
		if err != nil {
			continue
		}
		s.Post(func(s *scene.Scene) {
			for _, a := range s.Actors() {
				if b, ok := a.(*entity.Boss); ok && b.Brain().Table().ID == t.ID {
					b.SetTable(t)
				}
			}
		})
	}
}

// WatchDirs returns the content directories a watcher should observe.
func WatchDirs(c config.ContentConfig) []string {
	var dirs []string
	for _, d := range []string{c.SkillDir, c.ScriptDir} {
		if d == "" {
			continue
		}
		if _, err := os.Stat(d); err == nil {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Close releases the scripting VMs and detaches every scene.
func (w *World) Close() {
	for _, id := range w.Scenes.IDs() {
		w.Ticker.Unregister(id)
		_ = w.Scenes.Remove(id)
	}
	if w.Scripts != nil {
		w.Scripts.Close()
	}
}
