// Package scripting provides a sandboxed GopherLua execution environment
// for content hooks such as a boss's choose_skill. It has no dependency on
// simulation packages; callers pass plain Lua values in and read Lua values out.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit caps the opcodes of one script load or hook call
// when the configuration leaves the limit at zero.
const DefaultInstructionLimit = 100_000

// opcodeContext cancels itself once Done has been polled limit times.
// GopherLua polls Done once per executed opcode when a context is set, so
// the poll count is the instruction count.
type opcodeContext struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (c *opcodeContext) Done() <-chan struct{} {
	if c.left.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// Budget is the instruction allowance of one LState. Every Reset grants the
// full limit again; a hook call never inherits what a previous call used.
type Budget struct {
	L     *lua.LState
	limit int
	ctx   *opcodeContext
}

// Limit returns the per-execution opcode limit.
func (b *Budget) Limit() int { return b.limit }

// Reset installs a fresh allowance on the LState.
func (b *Budget) Reset() {
	b.Release()
	base, cancel := context.WithCancel(context.Background())
	ctx := &opcodeContext{Context: base, cancel: cancel}
	ctx.left.Store(int64(b.limit))
	b.ctx = ctx
	b.L.SetContext(ctx)
}

// Release cancels the current allowance.
func (b *Budget) Release() {
	if b.ctx != nil {
		b.ctx.cancel()
		b.ctx = nil
	}
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes per Budget.Reset
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState with a primed Budget. The caller
// owns the LState and must call Budget.Release and L.Close() when done.
func NewSandboxedState(instLimit int) (*lua.LState, *Budget) {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	b := &Budget{L: L, limit: limit}
	b.Reset()
	return L, b
}
