package ai

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ChooseSkillHook is the Lua function a ScriptedSelector calls.
//
// It is invoked as choose_skill(phase, distance, health_ratio, intent, id...)
// and returns the chosen skill id, or nil to defer to the weighted pick.
const ChooseSkillHook = "choose_skill"

// ScriptedSelector delegates skill choice to a Lua hook.
type ScriptedSelector struct {
	caller ScriptCaller
	key    string
	logger *zap.Logger
}

// NewScriptedSelector creates a selector calling the hook in key's VM.
//
// Precondition: caller must be non-nil. A nil logger disables logging.
func NewScriptedSelector(caller ScriptCaller, key string, logger *zap.Logger) *ScriptedSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptedSelector{caller: caller, key: key, logger: logger}
}

// Select implements Selector.
func (s *ScriptedSelector) Select(ctx SelectionContext) (string, bool) {
	args := make([]lua.LValue, 0, 4+len(ctx.Candidates))
	args = append(args,
		lua.LNumber(ctx.Phase),
		lua.LNumber(ctx.Distance),
		lua.LNumber(ctx.HealthRatio),
		lua.LString(ctx.Intent),
	)
	for _, c := range ctx.Candidates {
		args = append(args, lua.LString(c.ID))
	}
	ret, err := s.caller.CallHook(s.key, ChooseSkillHook, args...)
	if err != nil {
		s.logger.Warn("choose_skill failed", zap.String("key", s.key), zap.Error(err))
		return "", false
	}
	str, ok := ret.(lua.LString)
	if !ok || str == "" {
		return "", false
	}
	return string(str), true
}
