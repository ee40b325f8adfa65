package ai

// NormalHost is the view of a regular enemy its brain drives.
type NormalHost interface {
	CurrentState() string
	RequestState(name string) bool
	IsDead() bool
}

// DefaultAlertDuration is how long an enemy keeps chasing a target it can no
// longer see.
const DefaultAlertDuration = 2.0

// NormalBrain drives regular enemies: it starts a chase when the target is
// detected and gives up after the alert window expires.
//
// Invariant: the brain never requests a state while the host is attacking,
// hurt or dead.
type NormalBrain struct {
	host          NormalHost
	alertDuration float64
	alert         bool
	alertTimer    float64
}

// NewNormalBrain creates a brain for host. alertDuration <= 0 uses
// DefaultAlertDuration.
func NewNormalBrain(host NormalHost, alertDuration float64) *NormalBrain {
	if alertDuration <= 0 {
		alertDuration = DefaultAlertDuration
	}
	return &NormalBrain{host: host, alertDuration: alertDuration}
}

// Alert reports whether the enemy is still hunting its target.
func (b *NormalBrain) Alert() bool { return b.alert }

// Update consumes this frame's perception.
func (b *NormalBrain) Update(p Perception, dt float64) {
	if b.host.IsDead() {
		b.alert = false
		return
	}
	state := b.host.CurrentState()

	if p.TargetDetected {
		b.alert = true
		b.alertTimer = 0
		switch state {
		case StateIdle, StatePatrol, StateReturn:
			b.host.RequestState(StateChase)
		}
		return
	}

	if !b.alert {
		return
	}
	b.alertTimer += dt
	if b.alertTimer < b.alertDuration {
		return
	}
	b.alert = false
	b.alertTimer = 0
	if state == StateChase {
		b.host.RequestState(StateReturn)
	}
}
