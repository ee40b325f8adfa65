package ai_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

type fakeBoss struct {
	state         string
	health        float64
	dist          float64
	pending       string
	phaseTwoCalls int
	requests      []string
}

func newFakeBoss(dist float64) *fakeBoss {
	return &fakeBoss{state: ai.StateChase, health: 1, dist: dist}
}

func (f *fakeBoss) CurrentState() string { return f.state }
func (f *fakeBoss) RequestState(name string) bool {
	f.requests = append(f.requests, name)
	f.state = name
	return true
}
func (f *fakeBoss) IsDead() bool { return f.state == ai.StateDead }
func (f *fakeBoss) IsBusy() bool {
	switch f.state {
	case ai.StateAttack, ai.StateHit, ai.StatePhaseChange, ai.StateDead:
		return true
	}
	return false
}
func (f *fakeBoss) HealthRatio() float64      { return f.health }
func (f *fakeBoss) TargetDistance() float64   { return f.dist }
func (f *fakeBoss) SetPendingSkill(id string) { f.pending = id }
func (f *fakeBoss) EnterPhaseTwo()            { f.phaseTwoCalls++ }

func newRoller(seed uint64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), nil)
}

func twoSkillTable(t *testing.T) *skill.Table {
	t.Helper()
	tbl := &skill.Table{
		ID:        "pair",
		Default:   "Light",
		LongRange: 300,
		Skills: []skill.Definition{
			{ID: "Light", MaxRange: 1000, Weight: 1, PhaseList: []int{1, 2}, Active: 0.1},
			{ID: "Heavy", MaxRange: 1000, Weight: 3, PhaseList: []int{1, 2}, Active: 0.1},
		},
	}
	require.NoError(t, tbl.Validate())
	return tbl
}

func TestBossBrain_WeightedPickFollowsWeights(t *testing.T) {
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, twoSkillTable(t), newRoller(7), ai.BossConfig{}, nil)

	const n = 20000
	heavy := 0
	for i := 0; i < n; i++ {
		host.state = ai.StateChase
		d := brain.Think(0.1)
		require.Equal(t, ai.DecisionAttack, d.Kind)
		if d.Skill == "Heavy" {
			heavy++
		}
	}
	assert.InDelta(t, 0.75, float64(heavy)/n, 0.02)
}

func TestBossBrain_AttackWritesPendingSkillAndStartsCooldown(t *testing.T) {
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)

	d := brain.Think(0.1)
	require.Equal(t, ai.DecisionAttack, d.Kind)
	assert.Equal(t, d.Skill, host.pending)
	assert.Equal(t, ai.StateAttack, host.state)

	def, ok := skill.DefaultTable().Skill(d.Skill)
	require.True(t, ok)
	assert.Equal(t, def.Cooldown, brain.Cooldown(d.Skill))
}

func TestBossBrain_CooldownBlocksRepeat(t *testing.T) {
	tbl := &skill.Table{
		ID: "solo", Default: "Only", LongRange: 300,
		Skills: []skill.Definition{{ID: "Only", MaxRange: 500, Cooldown: 2, Weight: 1, PhaseList: []int{1}, Active: 0.1}},
	}
	require.NoError(t, tbl.Validate())
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, tbl, newRoller(1), ai.BossConfig{}, nil)

	assert.Equal(t, ai.DecisionAttack, brain.Think(0.1).Kind)
	host.state = ai.StateChase
	assert.Equal(t, ai.DecisionChase, brain.Think(0.1).Kind)
	assert.Equal(t, ai.DecisionAttack, brain.Think(2).Kind)
}

func TestBossBrain_NoCandidateRequestsChase(t *testing.T) {
	host := newFakeBoss(5000)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
	d := brain.Think(0.1)
	assert.Equal(t, ai.DecisionChase, d.Kind)
	assert.Equal(t, []string{ai.StateChase}, host.requests)
}

func TestBossBrain_NoTargetRequestsNothing(t *testing.T) {
	host := newFakeBoss(math.Inf(1))
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
	assert.Equal(t, ai.DecisionNone, brain.Think(0.1).Kind)
	assert.Empty(t, host.requests)
}

func TestBossBrain_BusyOrDeadSkipsThinking(t *testing.T) {
	for _, state := range []string{ai.StateAttack, ai.StateHit, ai.StatePhaseChange, ai.StateDead} {
		host := newFakeBoss(100)
		host.state = state
		host.health = 0.1
		brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
		assert.Equal(t, ai.DecisionNone, brain.Think(0.1).Kind, state)
		assert.Empty(t, host.requests, state)
		assert.Equal(t, 0, host.phaseTwoCalls, state)
	}
}

func TestBossBrain_PhaseTwoFiresOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(3), ai.BossConfig{}, zap.New(core))

	brain.Think(0.1)
	assert.Equal(t, skill.PhaseOne, brain.Phase())

	host.state = ai.StateChase
	host.health = 0.4
	d := brain.Think(0.1)
	assert.Equal(t, ai.DecisionPhaseChange, d.Kind)
	assert.Equal(t, ai.StatePhaseChange, host.state)
	assert.Equal(t, skill.PhaseTwo, brain.Phase())
	assert.Equal(t, 1, host.phaseTwoCalls)

	// A full heal and a second drop never re-enter phase two.
	for _, h := range []float64{0.9, 0.3, 0.1} {
		host.state = ai.StateChase
		host.health = h
		assert.NotEqual(t, ai.DecisionPhaseChange, brain.Think(0.1).Kind)
	}
	assert.Equal(t, 1, host.phaseTwoCalls)
	assert.Equal(t, skill.PhaseTwo, brain.Phase())
	assert.Equal(t, 1, logs.FilterMessage("boss entering phase two").Len())
}

func TestBossBrain_PhaseTwoOnlySkillsUnlock(t *testing.T) {
	host := newFakeBoss(550)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
	// Nothing in phase one reaches 550.
	assert.Equal(t, ai.DecisionChase, brain.Think(0.1).Kind)

	host.health = 0.5
	require.Equal(t, ai.DecisionPhaseChange, brain.Think(0.1).Kind)
	host.state = ai.StateChase
	d := brain.Think(0.1)
	assert.Equal(t, ai.DecisionAttack, d.Kind)
	assert.Equal(t, "LeapSlam", d.Skill)
}

func TestProperty_ClosingSkillPreferredAtLongRangeInPhaseTwo(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		dist := rapid.Float64Range(300, 450).Draw(rt, "dist")
		host := newFakeBoss(dist)
		host.health = 0.2
		brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(seed), ai.BossConfig{}, nil)
		if d := brain.Think(0.1); d.Kind != ai.DecisionPhaseChange {
			rt.Fatalf("expected phase change, got %v", d.Kind)
		}
		host.state = ai.StateChase
		d := brain.Think(0.1)
		if d.Kind != ai.DecisionAttack || d.Skill != "DashSlash" {
			rt.Fatalf("dist %v: got %v %q", dist, d.Kind, d.Skill)
		}
	})
}

func TestProperty_PickedSkillIsAlwaysEligible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		host := newFakeBoss(rapid.Float64Range(0, 700).Draw(rt, "dist"))
		brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(seed), ai.BossConfig{}, nil)
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			host.state = ai.StateChase
			host.dist = rapid.Float64Range(0, 700).Draw(rt, "d")
			before := map[string]float64{}
			for _, s := range brain.Table().Skills {
				before[s.ID] = brain.Cooldown(s.ID)
			}
			d := brain.Think(0.25)
			if d.Kind != ai.DecisionAttack {
				continue
			}
			def, ok := brain.Table().Skill(d.Skill)
			if !ok {
				rt.Fatalf("unknown skill %q", d.Skill)
			}
			if !def.UsableIn(brain.Phase()) || !def.InRange(host.dist) {
				rt.Fatalf("%q not eligible at %v", d.Skill, host.dist)
			}
			if before[d.Skill]-0.25 > 0 {
				rt.Fatalf("%q picked with %v cooldown left", d.Skill, before[d.Skill]-0.25)
			}
		}
	})
}

func TestBossBrain_UpdateThrottlesThinking(t *testing.T) {
	host := newFakeBoss(5000)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{ThinkInterval: 0.1}, nil)
	p := ai.Perception{TargetDetected: true}
	brain.Update(p, 0.04)
	brain.Update(p, 0.04)
	assert.Empty(t, host.requests)
	brain.Update(p, 0.04)
	assert.Len(t, host.requests, 1)
	brain.Update(p, 0.04)
	assert.Len(t, host.requests, 1)
}

func TestBossBrain_UpdateKeepsThinkCadenceAt60Hz(t *testing.T) {
	host := newFakeBoss(5000)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{ThinkInterval: 0.1}, nil)
	p := ai.Perception{TargetDetected: true}
	for i := 0; i < 600; i++ {
		brain.Update(p, 1.0/60)
	}
	assert.InDelta(t, 100, len(host.requests), 1)
}

func TestBossBrain_UpdateAdvancesCooldownsByFullElapsed(t *testing.T) {
	tbl := &skill.Table{
		ID: "solo", Default: "Only", LongRange: 300,
		Skills: []skill.Definition{{ID: "Only", MaxRange: 500, Cooldown: 2, Weight: 1, PhaseList: []int{1}, Active: 0.1}},
	}
	require.NoError(t, tbl.Validate())
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, tbl, newRoller(1), ai.BossConfig{ThinkInterval: 0.1}, nil)
	p := ai.Perception{TargetDetected: true}

	brain.Update(p, 0.1)
	require.Equal(t, ai.DecisionAttack, brain.LastDecision().Kind)
	host.state = ai.StateChase

	brain.Update(p, 0.25)
	assert.InDelta(t, 1.75, brain.Cooldown("Only"), 1e-9)
}

type fixedSelector struct{ id string }

func (s fixedSelector) Select(ai.SelectionContext) (string, bool) { return s.id, true }

func TestBossBrain_SelectorOverridesWeights(t *testing.T) {
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
	brain.SetSelector(fixedSelector{id: "GroundSlam"})
	d := brain.Think(0.1)
	assert.Equal(t, "GroundSlam", d.Skill)
}

func TestBossBrain_SelectorUnknownIDFallsBack(t *testing.T) {
	host := newFakeBoss(100)
	brain := ai.NewBossBrain(host, skill.DefaultTable(), newRoller(1), ai.BossConfig{}, nil)
	// LeapSlam exists but is phase two only.
	brain.SetSelector(fixedSelector{id: "LeapSlam"})
	d := brain.Think(0.1)
	require.Equal(t, ai.DecisionAttack, d.Kind)
	assert.Contains(t, []string{"Combo3", "GroundSlam"}, d.Skill)
}

type recordingCaller struct {
	args []lua.LValue
	ret  lua.LValue
}

func (c *recordingCaller) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	c.args = args
	if c.ret == nil {
		return lua.LNil, nil
	}
	return c.ret, nil
}

func TestScriptedSelector_PassesContextAsVarargs(t *testing.T) {
	caller := &recordingCaller{ret: lua.LString("GroundSlam")}
	sel := ai.NewScriptedSelector(caller, "ogre", nil)
	tbl := skill.DefaultTable()
	c1, _ := tbl.Skill("Combo3")
	c2, _ := tbl.Skill("GroundSlam")

	id, ok := sel.Select(ai.SelectionContext{
		Phase: 1, Distance: 120, HealthRatio: 0.8, Intent: skill.IntentMelee,
		Candidates: []*skill.Definition{c1, c2},
	})
	require.True(t, ok)
	assert.Equal(t, "GroundSlam", id)
	assert.Equal(t, []lua.LValue{
		lua.LNumber(1), lua.LNumber(120), lua.LNumber(0.8), lua.LString("melee"),
		lua.LString("Combo3"), lua.LString("GroundSlam"),
	}, caller.args)
}

func TestScriptedSelector_NilDefers(t *testing.T) {
	sel := ai.NewScriptedSelector(&recordingCaller{}, "ogre", nil)
	_, ok := sel.Select(ai.SelectionContext{})
	assert.False(t, ok)
}
