package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

func onlySkill(t *testing.T, id string) *skill.Table {
	t.Helper()
	tbl := skill.DefaultTable()
	def, ok := tbl.Skill(id)
	require.True(t, ok)
	tbl.Skills = []skill.Definition{*def}
	tbl.Default = id
	require.NoError(t, tbl.Validate())
	return tbl
}

func TestBoss_IdlesWithoutTarget(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), nil, entity.BossConfig{}, deps)
	assert.Equal(t, ai.StateChase, b.StateName())
	run(flatFrame(0.1), 0.5, b)
	assert.Equal(t, ai.StateIdle, b.StateName())
	assert.Equal(t, skill.PhaseOne, b.Phase())
}

func TestBoss_MeleeSkillDamagesTargetOnce(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), onlySkill(t, "Combo3"), entity.BossConfig{}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 100), nil, combat.DefaultStats(), entity.PlayerConfig{MaxHealth: 500}, deps)
	b.SetTarget(p)

	f := flatFrame(0.05)
	sawAttack := false
	for i := 0; i < 20 && !sawAttack; i++ {
		b.Step(f)
		sawAttack = b.StateName() == ai.StateAttack
	}
	require.True(t, sawAttack)
	assert.True(t, b.IsBusy())
	assert.Equal(t, 2.0, b.Brain().Cooldown("Combo3"))

	// Windup 0.35 + active 0.5 + recovery 0.65 with one hit of 12.
	run(f, 1.8, b)
	assert.Equal(t, 488.0, p.Health().Current())
	assert.NotEqual(t, ai.StateAttack, b.StateName())
}

func TestBoss_SkillRangeIgnoresTargetHeight(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), onlySkill(t, "Combo3"), entity.BossConfig{}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.PlayerConfig{MaxHealth: 500}, deps)
	p.Teleport(geom.V(0, 200, 100))
	b.SetTarget(p)

	assert.InDelta(t, 100, b.TargetDistance(), 1e-9)

	f := flatFrame(0.05)
	sawAttack := false
	for i := 0; i < 20 && !sawAttack; i++ {
		b.Step(f)
		sawAttack = b.StateName() == ai.StateAttack
	}
	assert.True(t, sawAttack, "Combo3 reaches 150 horizontally; the 200 height gap must not matter")
}

func TestBoss_ClosingSkillStopsAtStandOff(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), onlySkill(t, "DashSlash"), entity.BossConfig{}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 400), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	b.SetTarget(p)

	f := flatFrame(0.05)
	for i := 0; i < 10 && b.StateName() != ai.StateAttack; i++ {
		b.Step(f)
	}
	require.Equal(t, ai.StateAttack, b.StateName())

	// Windup 0.3 then a 0.25 s dash.
	run(f, 0.7, b)
	assert.InDelta(t, 200, b.Position().Z(), 1e-6)
	assert.InDelta(t, 0, b.Position().X(), 1e-6)
	// 200 away is outside the 140 hit radius.
	assert.Equal(t, 100.0, p.Health().Current())
}

func TestBoss_PhaseTwoHealsStaggersAndBuffs(t *testing.T) {
	deps, bus := newDeps(t)
	phaseEvents := countEvents(bus, event.PhaseChanged)
	cfg := entity.BossConfig{PhaseTwoFullHeal: true}
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), nil, cfg, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 450), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	b.SetTarget(p)

	b.Health().Set(400)
	f := flatFrame(0.1)
	b.Step(f)
	require.Equal(t, ai.StatePhaseChange, b.StateName())
	assert.Equal(t, skill.PhaseTwo, b.Phase())
	assert.Equal(t, 1000.0, b.Health().Current())
	assert.Equal(t, 1, *phaseEvents)
	move, dmg := b.Multipliers()
	assert.Equal(t, 1.0, move)
	assert.Equal(t, 1.0, dmg)

	run(f, 3.0, b)
	assert.Equal(t, ai.StatePhaseChange, b.StateName())
	run(f, 0.6, b)
	assert.NotEqual(t, ai.StatePhaseChange, b.StateName())
	move, dmg = b.Multipliers()
	assert.Equal(t, 1.2, move)
	assert.Equal(t, 1.15, dmg)

	// Dropping below half again never repeats the phase change.
	b.Health().Set(100)
	run(f, 2, b)
	assert.Equal(t, 1, *phaseEvents)
}

func TestBoss_HitReactionOnlyWhenFree(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), nil, entity.BossConfig{}, deps)
	require.True(t, b.TakeHit(10, "hero"))
	assert.Equal(t, ai.StateHit, b.StateName())

	run(flatFrame(0.1), 0.9, b)
	assert.NotEqual(t, ai.StateHit, b.StateName())

	require.True(t, b.RequestState(ai.StateAttack))
	require.True(t, b.TakeHit(10, "hero"))
	assert.Equal(t, ai.StateAttack, b.StateName())
	assert.Equal(t, 980.0, b.Health().Current())
}

func TestBoss_DeathEmitsAfterDelay(t *testing.T) {
	deps, bus := newDeps(t)
	died := countEvents(bus, event.EnemyDied)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), nil, entity.BossConfig{}, deps)
	require.True(t, b.TakeHit(5000, "hero"))
	assert.Equal(t, ai.StateDead, b.StateName())

	f := flatFrame(0.1)
	run(f, 2.5, b)
	assert.Zero(t, *died)
	run(f, 1, b)
	assert.Equal(t, 1, *died)
	assert.True(t, b.Removed())
}

func TestBoss_TargetBeyondViewIsInvisible(t *testing.T) {
	deps, _ := newDeps(t)
	b := entity.NewBoss("ogre", geom.V(0, 0, 0), nil, combat.DefaultStats(), nil, entity.BossConfig{ViewRange: 300}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 400), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	b.SetTarget(p)
	assert.True(t, b.TargetDistance() > 1e300)
	p.Teleport(geom.V(0, 0, 250))
	assert.InDelta(t, 250, b.TargetDistance(), 1e-9)
}
