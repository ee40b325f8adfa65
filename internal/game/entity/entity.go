// Package entity implements the player, regular enemy and boss behaviour
// states on top of the generic state machine, and the per-frame step that
// moves, senses and updates each of them.
package entity

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/fsm"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/movement"
)

// Entity kinds.
const (
	KindPlayer = "player"
	KindEnemy  = "enemy"
	KindBoss   = "boss"
)

// Actor is anything a scene steps each frame.
type Actor interface {
	combat.Target
	Kind() string
	Name() string
	Position() geom.Vec3
	Body() *collision.Body
	StateName() string
	// Removed reports whether the actor has finished dying and may be pruned.
	Removed() bool
	Step(f Frame)
}

// Frame is the per-frame context a scene hands to every actor.
type Frame struct {
	Dt float64
	// Integrator may be nil; the actor then does not move physically.
	Integrator *movement.Integrator
	// Bodies are every collider in the scene, the actor's own included.
	Bodies []*collision.Body
	// Targets are every actor melee attacks may hit.
	Targets []combat.Target
}

// Deps are the shared services an entity is built with. Zero fields get safe
// defaults.
type Deps struct {
	Bus      *event.Bus
	Roller   *dice.Roller
	Animator Animator
	Logger   *zap.Logger
	SceneID  string
}

func (d Deps) withDefaults() Deps {
	if d.Bus == nil {
		d.Bus = event.NewBus()
	}
	if d.Roller == nil {
		d.Roller = dice.NewLoggedRoller(dice.NewCryptoSource(), nil)
	}
	if d.Animator == nil {
		d.Animator = NewClipAnimator(nil, d.Logger)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Base holds the data every entity shares.
//
// Invariant: the body's world box always matches the position as of the last
// integration or scripted move.
type Base struct {
	id     string
	kind   string
	name   string
	motion movement.State
	yaw    float64
	body   *collision.Body
	health *combat.Health
	stats  combat.Stats
	target Actor

	bus      *event.Bus
	roller   *dice.Roller
	anim     Animator
	logger   *zap.Logger
	sceneID  string
	removed  bool
	targets  []combat.Target
	lastMove movement.Result
}

func newBase(kind, name string, pos geom.Vec3, body *collision.Body, maxHP float64, stats combat.Stats, deps Deps) Base {
	deps = deps.withDefaults()
	if body == nil {
		body = collision.NewBody(geom.NewAABB(geom.V(-20, 0, -20), geom.V(20, 100, 20)))
	}
	id := uuid.NewString()
	b := Base{
		id:      id,
		kind:    kind,
		name:    name,
		motion:  movement.State{Position: pos},
		body:    body,
		health:  combat.NewHealth(maxHP),
		stats:   stats,
		bus:     deps.Bus,
		roller:  deps.Roller,
		anim:    deps.Animator,
		sceneID: deps.SceneID,
		logger: deps.Logger.With(
			zap.String("entity", id),
			zap.String("kind", kind),
			zap.String("name", name),
		),
	}
	b.body.Update(pos)
	return b
}

// ID returns the entity's unique id.
func (b *Base) ID() string { return b.id }

// Kind returns the entity kind.
func (b *Base) Kind() string { return b.kind }

// Name returns the display name.
func (b *Base) Name() string { return b.name }

// Position returns the world position.
func (b *Base) Position() geom.Vec3 { return b.motion.Position }

// Velocity returns the current velocity.
func (b *Base) Velocity() geom.Vec3 { return b.motion.Velocity }

// Grounded reports whether the entity stands on the ground.
func (b *Base) Grounded() bool { return b.motion.Grounded }

// Yaw returns the facing in degrees from +Z towards +X.
func (b *Base) Yaw() float64 { return b.yaw }

// Body returns the entity's collider.
func (b *Base) Body() *collision.Body { return b.body }

// Health returns the health component.
func (b *Base) Health() *combat.Health { return b.health }

// Stats returns the attack statistics.
func (b *Base) Stats() combat.Stats { return b.stats }

// Alive reports whether the entity has health left.
func (b *Base) Alive() bool { return !b.health.IsDead() }

// Removed reports whether the entity has finished dying.
func (b *Base) Removed() bool { return b.removed }

// Hurtbox returns the world collider box.
func (b *Base) Hurtbox() geom.AABB { return b.body.World() }

// Defense returns the defence stat.
func (b *Base) Defense() float64 { return b.stats.Defense }

// LastMove returns the integrator result of the most recent step.
func (b *Base) LastMove() movement.Result { return b.lastMove }

// Target returns the current target, or nil.
func (b *Base) Target() Actor { return b.target }

// SetTarget sets the target; nil clears it.
func (b *Base) SetTarget(t Actor) { b.target = t }

// Teleport places the entity at pos and stops it.
func (b *Base) Teleport(pos geom.Vec3) {
	b.motion.Position = pos
	b.motion.Velocity = geom.Vec3{}
	b.body.Update(pos)
}

// liveTarget returns the target when it is still alive and present.
func (b *Base) liveTarget() (Actor, bool) {
	if b.target == nil || b.target.Removed() || !b.target.Alive() {
		return nil, false
	}
	return b.target, true
}

// targetDistance returns the distance to a live target, or +Inf.
func (b *Base) targetDistance() float64 {
	t, ok := b.liveTarget()
	if !ok {
		return math.Inf(1)
	}
	return geom.Distance(b.motion.Position, t.Position())
}

// targetDistanceXZ returns the horizontal distance to a live target, or +Inf.
func (b *Base) targetDistanceXZ() float64 {
	t, ok := b.liveTarget()
	if !ok {
		return math.Inf(1)
	}
	return geom.DistanceXZ(b.motion.Position, t.Position())
}

// integrate runs the physical part of a frame: movement then body update.
func (b *Base) integrate(f Frame) {
	b.health.Advance(f.Dt)
	b.targets = f.Targets
	if f.Integrator != nil {
		b.lastMove = f.Integrator.Step(&b.motion, b.body, f.Bodies, f.Dt)
	}
	b.body.Update(b.motion.Position)
}

// steer writes a horizontal velocity of speed towards dest and faces it.
// It stops when dest is reached.
func (b *Base) steer(dest geom.Vec3, speed float64) {
	dir, ok := geom.SafeNormalize(geom.Flatten(dest.Sub(b.motion.Position)))
	if !ok {
		b.stop()
		return
	}
	b.motion.Velocity[0] = dir[0] * speed
	b.motion.Velocity[2] = dir[2] * speed
	b.face(dir)
}

// stop zeroes horizontal velocity.
func (b *Base) stop() {
	b.motion.Velocity[0] = 0
	b.motion.Velocity[2] = 0
}

func (b *Base) face(dir geom.Vec3) {
	if yaw, ok := geom.YawDegrees(dir); ok {
		b.yaw = yaw
	}
}

func (b *Base) faceToward(p geom.Vec3) {
	b.face(p.Sub(b.motion.Position))
}

// forward returns the unit facing vector on the XZ plane.
func (b *Base) forward() geom.Vec3 {
	r := b.yaw * math.Pi / 180
	return geom.V(math.Sin(r), 0, math.Cos(r))
}

// forwardHitbox returns a box reach deep in front of the entity, as tall as
// its body.
func (b *Base) forwardHitbox(reach float64) geom.AABB {
	local := b.body.Local()
	size := local.Size()
	halfWidth := math.Max(size[0], size[2]) / 2
	center := b.motion.Position.Add(b.forward().Mul(reach / 2))
	center[1] += local.Center().Y()
	return geom.BoxAround(center, geom.V(math.Max(reach/2, halfWidth), size[1]/2, math.Max(reach/2, halfWidth)))
}

// hostile reports whether t may be struck by this entity. The player strikes
// every non-player; enemies and bosses strike their target and player-kind
// actors only. Targets without a kind are always hostile.
func (b *Base) hostile(t combat.Target) bool {
	k, ok := t.(interface{ Kind() string })
	if b.kind == KindPlayer {
		return !ok || k.Kind() != KindPlayer
	}
	if b.target != nil && t.ID() == b.target.ID() {
		return true
	}
	return !ok || k.Kind() == KindPlayer
}

// strike resolves one melee attack against every hostile frame target.
func (b *Base) strike(reach float64, stats combat.Stats) int {
	targets := make([]combat.Target, 0, len(b.targets))
	for _, t := range b.targets {
		if t != nil && b.hostile(t) {
			targets = append(targets, t)
		}
	}
	hits := combat.ExecuteMeleeAttack(b.forwardHitbox(reach), b.id, stats, targets, b.roller)
	if hits > 0 {
		b.logger.Debug("melee hit", zap.Int("targets", hits))
	}
	return hits
}

func (b *Base) play(name string, loop bool) {
	b.anim.Play(name, loop)
}

func (b *Base) emit(name string, data map[string]any) {
	b.bus.Emit(event.Event{Name: name, Subject: b, SceneID: b.sceneID, Data: data})
}

// request changes m to name and reports whether name is a registered state.
// Requesting the current state is accepted and does nothing.
func request[T any](m *fsm.Machine[T], name string) bool {
	if !m.Has(name) {
		return false
	}
	m.Change(name)
	return true
}

// registerAll registers a fixed state set. The names are constants, so a
// failure is a programming error.
func registerAll[T any](m *fsm.Machine[T], states ...fsm.State[T]) {
	for _, s := range states {
		if err := m.Register(s); err != nil {
			panic(err)
		}
	}
}
