package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Validate checks the table and builds each skill's phase mask.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff the table has an id, a default that names one
// of its skills, unique skill ids, and every skill has finite non-negative
// ranges with min <= max, non-negative cooldown, weight and stage times, and
// at least one phase in {1, 2}. Every violation is reported, not just the first.
func (t *Table) Validate() error {
	var errs error
	if t.ID == "" {
		errs = multierr.Append(errs, fmt.Errorf("skill table: id must not be empty"))
	}
	if t.LongRange < 0 || !finite(t.LongRange) {
		errs = multierr.Append(errs, fmt.Errorf("skill table %q: long_range must be a finite value >= 0", t.ID))
	}
	seen := make(map[string]bool, len(t.Skills))
	for i := range t.Skills {
		s := &t.Skills[i]
		if s.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("skill table %q: skill %d: id must not be empty", t.ID, i))
			continue
		}
		if seen[s.ID] {
			errs = multierr.Append(errs, fmt.Errorf("skill table %q: duplicate skill %q", t.ID, s.ID))
		}
		seen[s.ID] = true
		errs = multierr.Append(errs, s.validate(t.ID))
		s.buildMask()
	}
	if t.Default == "" {
		errs = multierr.Append(errs, fmt.Errorf("skill table %q: default must not be empty", t.ID))
	} else if !seen[t.Default] {
		errs = multierr.Append(errs, fmt.Errorf("skill table %q: default %q is not a skill in the table", t.ID, t.Default))
	}
	return errs
}

func (d *Definition) validate(table string) error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("skill table %q: skill %q: %s", table, d.ID, fmt.Sprintf(format, args...)))
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"min_range", d.MinRange}, {"max_range", d.MaxRange}, {"cooldown", d.Cooldown},
		{"weight", d.Weight}, {"windup", d.Windup}, {"move_time", d.MoveTime},
		{"active", d.Active}, {"recovery", d.Recovery}, {"stand_off", d.StandOff},
		{"hit_radius", d.HitRadius}, {"damage", d.Damage},
	}
	for _, f := range fields {
		if f.v < 0 || !finite(f.v) {
			fail("%s must be a finite value >= 0", f.name)
		}
	}
	if d.MinRange > d.MaxRange {
		fail("min_range %.1f exceeds max_range %.1f", d.MinRange, d.MaxRange)
	}
	if len(d.PhaseList) == 0 {
		fail("phases must not be empty")
	}
	for _, p := range d.PhaseList {
		if p != 1 && p != 2 {
			fail("phase %d is not 1 or 2", p)
		}
	}
	switch d.Intent {
	case IntentNone, IntentMelee, IntentRanged, IntentDash, IntentAOE, IntentCounter:
	default:
		fail("unknown intent %q", d.Intent)
	}
	return errs
}

// LoadTableFromBytes parses and validates a single skill table.
//
// Postcondition: Returns a validated *Table with phase masks built, or an error.
func LoadTableFromBytes(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing skill table YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTableFile reads and validates the skill table at path.
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	t, err := LoadTableFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return t, nil
}

// LoadTables reads every *.yaml file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns every table, or an error listing every file that
// failed; on error the partial result is discarded.
func LoadTables(dir string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}

	var (
		tables []*Table
		errs   error
	)
	for _, entry := range entries {
		if entry.IsDir() || !IsTableFile(entry.Name()) {
			continue
		}
		t, err := LoadTableFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		tables = append(tables, t)
	}
	if errs != nil {
		return nil, errs
	}
	return tables, nil
}

// IsTableFile reports whether name looks like a skill table file.
func IsTableFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
