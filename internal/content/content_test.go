package content_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/actioncore/internal/content"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
	"github.com/cory-johannsen/actioncore/internal/scripting"
)

func tableYAML(damage int) []byte {
	return []byte(fmt.Sprintf(`id: ogre
default: Smash
long_range: 300
skills:
  - id: Smash
    max_range: 150
    cooldown: 2
    weight: 1
    phases: [1, 2]
    intent: melee
    windup: 0.3
    active: 0.2
    recovery: 0.5
    hit_radius: 120
    damage: %d
`, damage))
}

func smashDamage(t *testing.T, reg *skill.Registry) float64 {
	t.Helper()
	tbl, ok := reg.Table("ogre")
	if !ok {
		return -1
	}
	def, ok := tbl.Skill("Smash")
	require.True(t, ok)
	return def.Damage
}

func TestReloader_ReloadsTableAndNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ogre.yaml")
	require.NoError(t, os.WriteFile(path, tableYAML(10), 0644))

	reg := skill.NewRegistry()
	r := content.NewReloader(reg, nil, 0, zaptest.NewLogger(t))
	var seen []string
	r.OnTable(func(tbl *skill.Table) { seen = append(seen, tbl.ID) })

	require.NoError(t, r.Reload(path))
	assert.Equal(t, 10.0, smashDamage(t, reg))
	assert.Equal(t, []string{"ogre"}, seen)
}

func TestReloader_InvalidTableKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ogre.yaml")
	require.NoError(t, os.WriteFile(path, tableYAML(10), 0644))

	reg := skill.NewRegistry()
	r := content.NewReloader(reg, nil, 0, nil)
	require.NoError(t, r.Reload(path))

	require.NoError(t, os.WriteFile(path, []byte("id: ogre\ndefault: Missing\n"), 0644))
	assert.Error(t, r.Reload(path))
	assert.Equal(t, 10.0, smashDamage(t, reg))
}

func TestReloader_LoadsScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ogre.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function choose_skill(phase, dist) return "Smash" end`), 0644))

	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(1), nil), nil)
	t.Cleanup(mgr.Close)
	r := content.NewReloader(skill.NewRegistry(), mgr, 10000, nil)

	assert.True(t, r.Handles(path))
	require.NoError(t, r.Reload(path))
	assert.True(t, mgr.Has("ogre"))
}

func TestReloader_Handles(t *testing.T) {
	r := content.NewReloader(skill.NewRegistry(), nil, 0, nil)
	assert.True(t, r.Handles("a/b.yaml"))
	assert.True(t, r.Handles("a/b.yml"))
	assert.False(t, r.Handles("a/b.lua"), "no script manager")
	assert.False(t, r.Handles("a/b.txt"))
	assert.Error(t, r.Reload("a/b.txt"))
}

func TestScriptKey(t *testing.T) {
	assert.Equal(t, "ogre", content.ScriptKey("/x/y/ogre.lua"))
}

func TestWatcher_ReloadsChangedTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ogre.yaml")
	require.NoError(t, os.WriteFile(path, tableYAML(10), 0644))

	reg := skill.NewRegistry()
	r := content.NewReloader(reg, nil, 0, zaptest.NewLogger(t))
	require.NoError(t, r.Reload(path))

	w, err := content.NewWatcher(r, 20*time.Millisecond, zaptest.NewLogger(t), dir)
	require.NoError(t, err)
	results := make(chan error, 8)
	w.OnResult(func(_ string, err error) { results <- err })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, os.WriteFile(path, tableYAML(25), 0644))
	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within timeout")
	}
	assert.Equal(t, 25.0, smashDamage(t, reg))
}

func TestWatcher_MissingDirFails(t *testing.T) {
	r := content.NewReloader(skill.NewRegistry(), nil, 0, nil)
	_, err := content.NewWatcher(r, 0, nil, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
