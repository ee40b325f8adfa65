// Package content reloads skill tables and AI scripts from disk while the
// simulation runs.
package content

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/skill"
	"github.com/cory-johannsen/actioncore/internal/scripting"
)

// Reloader applies one changed file to the live registries.
type Reloader struct {
	tables    *skill.Registry
	scripts   *scripting.Manager
	instLimit int
	logger    *zap.Logger
	onTable   []func(*skill.Table)
}

// NewReloader creates a Reloader.
//
// Precondition: tables must be non-nil. scripts may be nil, in which case Lua
// files are ignored.
func NewReloader(tables *skill.Registry, scripts *scripting.Manager, instLimit int, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{tables: tables, scripts: scripts, instLimit: instLimit, logger: logger}
}

// OnTable registers fn to receive every successfully reloaded table.
func (r *Reloader) OnTable(fn func(*skill.Table)) {
	r.onTable = append(r.onTable, fn)
}

// Handles reports whether path is a file the reloader acts on.
func (r *Reloader) Handles(path string) bool {
	if skill.IsTableFile(path) {
		return true
	}
	return r.scripts != nil && strings.EqualFold(filepath.Ext(path), ".lua")
}

// Reload loads path and swaps the result in.
//
// Postcondition: on error the registries are unchanged.
func (r *Reloader) Reload(path string) error {
	switch {
	case skill.IsTableFile(path):
		t, err := skill.LoadTableFile(path)
		if err != nil {
			return err
		}
		r.tables.Replace(t)
		r.logger.Info("skill table reloaded", zap.String("table", t.ID), zap.String("path", path))
		for _, fn := range r.onTable {
			fn(t)
		}
		return nil
	case r.scripts != nil && strings.EqualFold(filepath.Ext(path), ".lua"):
		key := ScriptKey(path)
		if err := r.scripts.LoadFile(key, path, r.instLimit); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("content: unsupported file %q", path)
	}
}

// ScriptKey returns the script key for a Lua file: its base name without the
// extension, matching the skill table id it belongs to.
func ScriptKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
