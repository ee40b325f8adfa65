package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/dice"
)

// vm is one loaded script set. Each LState is single-threaded; mu serialises
// calls into it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	budget *Budget
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.budget.Release()
	v.L.Close()
}

// Manager owns one sandboxed LState per script key (usually a skill table or
// actor template id) and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same key are serialised;
// different keys run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller must be non-nil. A nil logger disables logging.
// Postcondition: Returns a non-nil Manager with no loaded scripts.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM for key, registers the engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. A VM already
// loaded under key is replaced only after the new one loads cleanly.
//
// Precondition: key must be non-empty; scriptDir must be a readable directory.
// Postcondition: returns an error on a read or Lua load failure and leaves the
// previous VM in place.
func (m *Manager) Load(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.load(key, luaFiles, instLimit)
}

// LoadFile is Load for a single script file.
func (m *Manager) LoadFile(key, path string, instLimit int) error {
	return m.load(key, []string{path}, instLimit)
}

func (m *Manager) load(key string, files []string, instLimit int) error {
	L, budget := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)
	next := &vm{L: L, budget: budget}

	for _, path := range files {
		budget.Reset()
		if err := L.DoFile(path); err != nil {
			next.close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = next
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Info("scripting: loaded", zap.String("key", key), zap.Int("files", len(files)))
	return nil
}

// Has reports whether a VM is loaded for key.
func (m *Manager) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[key]
	return ok
}

// CallHook calls the named Lua global function in key's VM with a fresh
// instruction budget. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors, including an exhausted budget, are logged at
// Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v := m.vms[key]
	m.mu.RUnlock()

	if v == nil {
		m.logger.Debug("scripting: no VM for key",
			zap.String("key", key),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.budget.Reset()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}
