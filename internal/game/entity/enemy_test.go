package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

func TestEnemy_StartsIdle(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	assert.Equal(t, ai.StateIdle, e.StateName())
	assert.True(t, e.Alive())
	assert.Equal(t, entity.DefaultEnemyConfig(), e.Config())
}

func TestEnemy_SeesTargetChasesAndSteers(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{ViewRange: 300}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 250), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)

	f := flatFrame(0.1)
	e.Step(f)
	assert.Equal(t, ai.StateChase, e.StateName())
	assert.True(t, e.Brain().Alert())

	e.Step(f)
	assert.InDelta(t, 50*0.1, e.Position().Z(), 1e-9)
	assert.InDelta(t, 0, e.Position().X(), 1e-9)
	assert.InDelta(t, 0, e.Yaw(), 1e-9)
}

func TestEnemy_TargetOutOfViewStaysIdle(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{ViewRange: 100, IdleMin: 5, IdleMax: 6}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 250), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)
	run(flatFrame(0.1), 1, e)
	assert.Equal(t, ai.StateIdle, e.StateName())
}

func TestEnemy_IdleUntilTargetEntersViewThenChases(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{ViewRange: 300, IdleMin: 5, IdleMax: 6}, deps)
	p := entity.NewPlayer("hero", geom.V(500, 0, 0), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)
	f := flatFrame(0.1)
	speed := e.Config().MoveSpeed

	e.Step(f)
	require.Equal(t, ai.StateIdle, e.StateName())
	assert.InDelta(t, 0, e.Position().X(), 1e-9)

	p.Teleport(geom.V(200, 0, 0))
	e.Step(f)
	require.Equal(t, ai.StateChase, e.StateName())

	for i := 1; i <= 3; i++ {
		e.Step(f)
		assert.Equal(t, ai.StateChase, e.StateName())
		assert.InDelta(t, float64(i)*speed*f.Dt, e.Position().X(), 1e-9)
		assert.InDelta(t, 0, e.Position().Z(), 1e-9)
	}
	assert.InDelta(t, 90, e.Yaw(), 1e-9)
}

func TestEnemy_AttacksTargetInRange(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 50), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)

	f := flatFrame(0.1, p)
	e.Step(f)
	require.Equal(t, ai.StateAttack, e.StateName())
	e.Step(f)
	assert.Less(t, p.Health().Current(), 100.0)
	assert.Equal(t, entity.PlayerHurt, p.StateName())

	// The cooldown allows one more strike per second.
	hp := p.Health().Current()
	run(f, 0.5, e)
	assert.Equal(t, hp, p.Health().Current())
	run(f, 0.6, e)
	assert.Less(t, p.Health().Current(), hp)
}

func TestEnemy_AttackSparesAllies(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	ally := entity.NewEnemy("ally", geom.V(10, 0, 45), nil, combat.DefaultStats(), entity.EnemyConfig{IdleMin: 5, IdleMax: 6}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 50), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)

	run(flatFrame(0.1, p, ally), 2.5, e)
	assert.Less(t, p.Health().Current(), p.Health().Max())
	assert.Equal(t, ally.Health().Max(), ally.Health().Current())
}

func TestEnemy_LosesDeadTargetAndReturns(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 150), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)
	f := flatFrame(0.1)
	e.Step(f)
	require.Equal(t, ai.StateChase, e.StateName())

	p.Health().Set(0)
	e.Step(f)
	assert.Equal(t, ai.StateReturn, e.StateName())
}

func TestEnemy_ReturnReachesSpawnThenPatrols(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	e.Teleport(geom.V(0, 0, 40))
	require.True(t, e.RequestState(ai.StateReturn))
	run(flatFrame(0.1), 1, e)
	assert.Equal(t, ai.StatePatrol, e.StateName())
	assert.LessOrEqual(t, geom.DistanceXZ(e.Position(), e.Spawn()), e.Config().PatrolRadius+1)
}

func TestEnemy_HitStunsThenResumes(t *testing.T) {
	deps, _ := newDeps(t)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)
	e.Teleport(geom.V(0, 0, 500))
	require.True(t, e.TakeHit(10, "hero"))
	assert.Equal(t, ai.StateHit, e.StateName())
	assert.True(t, e.Stunned())
	assert.Equal(t, 90.0, e.Health().Current())

	f := flatFrame(0.1)
	run(f, 0.3, e)
	assert.Equal(t, ai.StateHit, e.StateName())
	run(f, 0.3, e)
	assert.False(t, e.Stunned())
	assert.Equal(t, ai.StateReturn, e.StateName())
}

func TestEnemy_DiesOnceAndIsRemoved(t *testing.T) {
	deps, bus := newDeps(t)
	died := countEvents(bus, event.EnemyDied)
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), entity.EnemyConfig{}, deps)

	require.True(t, e.TakeHit(500, "hero"))
	assert.Equal(t, ai.StateDead, e.StateName())
	assert.False(t, e.TakeHit(5, "hero"))

	f := flatFrame(0.1)
	run(f, 1.0, e)
	assert.False(t, e.Removed())
	assert.Zero(t, *died)
	run(f, 1.0, e)
	assert.True(t, e.Removed())
	assert.Equal(t, 1, *died)
	run(f, 1.0, e)
	assert.Equal(t, 1, *died)
}

func TestEnemy_NeverChasesWhileLeashed(t *testing.T) {
	deps, _ := newDeps(t)
	cfg := entity.EnemyConfig{MaxChaseRange: 100, ViewRange: 200}
	e := entity.NewEnemy("grunt", geom.V(0, 0, 0), nil, combat.DefaultStats(), cfg, deps)
	p := entity.NewPlayer("hero", geom.V(0, 0, 280), nil, combat.DefaultStats(), entity.PlayerConfig{}, deps)
	e.SetTarget(p)
	e.Teleport(geom.V(0, 0, 110))
	require.True(t, e.RequestState(ai.StateChase))

	f := flatFrame(0.1)
	e.Step(f)
	assert.Equal(t, ai.StateReturn, e.StateName())
	assert.False(t, e.RequestState(ai.StateChase))
	e.Step(f)
	assert.Equal(t, ai.StateReturn, e.StateName())
}

func TestProperty_PatrolStaysNearSpawn(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		radius := rapid.Float64Range(20, 300).Draw(rt, "radius")
		deps := entity.Deps{Roller: dice.NewLoggedRoller(dice.NewSeededSource(seed), nil)}
		spawn := geom.V(rapid.Float64Range(-500, 500).Draw(rt, "x"), 0, rapid.Float64Range(-500, 500).Draw(rt, "z"))
		e := entity.NewEnemy("grunt", spawn, nil, combat.DefaultStats(), entity.EnemyConfig{PatrolRadius: radius}, deps)
		f := flatFrame(0.1)
		for i := 0; i < 200; i++ {
			e.Step(f)
			if d := geom.DistanceXZ(e.Position(), spawn); d > radius+1e-6 {
				rt.Fatalf("enemy %v from spawn with radius %v", d, radius)
			}
		}
	})
}
