package decision

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

// Profile is a named condition band for one (machine, variable) pair.
type Profile string

const (
	ProfileNormal   Profile = "normal"
	ProfileWarning  Profile = "warning"
	ProfileCritical Profile = "critical"
)

// Band holds the hysteresis thresholds for one canonical variable. Enter
// thresholds are crossed upward, Exit thresholds downward; keeping them
// apart is what prevents flapping when a value hovers at a boundary.
type Band struct {
	WarningEnter  float64 `yaml:"warning_enter"`
	WarningExit   float64 `yaml:"warning_exit"`
	CriticalEnter float64 `yaml:"critical_enter"`
	CriticalExit  float64 `yaml:"critical_exit"`
}

type Config struct {
	// EquipmentClass selects which machines the engine watches, matched
	// against machine metadata or the machine name.
	EquipmentClass string `yaml:"equipment_class"`

	// ConfirmCount is how many consecutive samples must agree on a new
	// profile before a transition fires.
	ConfirmCount int `yaml:"confirm_count"`

	// WindowSize and MaxAge bound the trailing window per (machine,
	// variable) pair; the older limit wins.
	WindowSize int           `yaml:"window_size"`
	MaxAge     time.Duration `yaml:"max_age"`

	Bands map[string]Band `yaml:"bands"`
}

func (c *Config) ApplyDefaults() {
	if c.EquipmentClass == "" {
		c.EquipmentClass = "extruder"
	}
	if c.ConfirmCount <= 0 {
		c.ConfirmCount = 3
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 12
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 5 * time.Minute
	}
	if c.Bands == nil {
		c.Bands = DefaultBands()
	}
}

func (c *Config) Validate() error {
	if c.ConfirmCount > c.WindowSize {
		return fmt.Errorf("decision: confirm_count %d exceeds window_size %d", c.ConfirmCount, c.WindowSize)
	}
	for variable, b := range c.Bands {
		if b.WarningExit > b.WarningEnter {
			return fmt.Errorf("decision: %s warning_exit %.2f above warning_enter %.2f", variable, b.WarningExit, b.WarningEnter)
		}
		if b.CriticalExit > b.CriticalEnter {
			return fmt.Errorf("decision: %s critical_exit %.2f above critical_enter %.2f", variable, b.CriticalExit, b.CriticalEnter)
		}
		if b.WarningEnter >= b.CriticalEnter {
			return fmt.Errorf("decision: %s warning_enter %.2f not below critical_enter %.2f", variable, b.WarningEnter, b.CriticalEnter)
		}
	}
	return nil
}

// DefaultBands covers the extruder fleet's four monitored variables.
func DefaultBands() map[string]Band {
	return map[string]Band{
		"temperature":   {WarningEnter: 75, WarningExit: 70, CriticalEnter: 90, CriticalExit: 85},
		"vibration":     {WarningEnter: 4.5, WarningExit: 4, CriticalEnter: 7, CriticalExit: 6.5},
		"pressure":      {WarningEnter: 8, WarningExit: 7.5, CriticalEnter: 12, CriticalExit: 11},
		"motor_current": {WarningEnter: 12, WarningExit: 11, CriticalEnter: 18, CriticalExit: 17},
	}
}

// Transition is a one-shot profile change for a (machine, variable) pair.
// It fires on the observation that confirms the change and not again until
// the profile moves elsewhere.
type Transition struct {
	MachineID  uuid.UUID
	Variable   string
	From       Profile
	To         Profile
	Value      float64
	ObservedAt time.Time
}

// Severity grades a transition for incident records: escalations carry the
// target profile, recoveries are informational.
func (t *Transition) Severity() string {
	if rank(t.To) > rank(t.From) {
		return string(t.To)
	}
	return "info"
}

func (t *Transition) Message() string {
	return fmt.Sprintf("%s moved from %s to %s (%.2f)", t.Variable, t.From, t.To, t.Value)
}

func rank(p Profile) int {
	switch p {
	case ProfileWarning:
		return 1
	case ProfileCritical:
		return 2
	default:
		return 0
	}
}

type stateKey struct {
	machine  uuid.UUID
	variable string
}

type observation struct {
	candidate Profile
	at        time.Time
}

type trendState struct {
	current Profile
	window  []observation
}

// Engine tracks trailing condition windows per (machine, variable) pair
// and emits edge-triggered profile transitions. It holds no references to
// storage; applying a transition is the caller's job.
type Engine struct {
	cfg Config

	mu     sync.Mutex
	states map[stateKey]*trendState
}

func New(cfg Config) *Engine {
	cfg.ApplyDefaults()
	return &Engine{
		cfg:    cfg,
		states: make(map[stateKey]*trendState),
	}
}

// Eligible reports whether the engine watches this machine, decided by the
// equipment-class metadata tag or a name substring fallback.
func (e *Engine) Eligible(m *domain.Machine) bool {
	if m == nil {
		return false
	}
	class := strings.ToLower(e.cfg.EquipmentClass)
	for _, key := range []string{"machine_type", "type"} {
		if v, ok := m.Metadata[key].(string); ok && strings.ToLower(v) == class {
			return true
		}
	}
	return strings.Contains(strings.ToLower(m.Name), class)
}

// CanonicalVariable maps a sensor name onto the engine's fixed variable
// vocabulary. Sensors that match nothing are invisible to the engine but
// still persisted as samples upstream.
func CanonicalVariable(sensorName string) string {
	name := strings.ToLower(sensorName)
	switch {
	case strings.Contains(name, "temp"):
		return "temperature"
	case strings.Contains(name, "vib"):
		return "vibration"
	case strings.Contains(name, "pressure"):
		return "pressure"
	case strings.Contains(name, "current"):
		return "motor_current"
	default:
		return ""
	}
}

// Observe appends one sample to the pair's trailing window and returns a
// transition when, and only when, the last ConfirmCount observations agree
// on a profile different from the current one. A single outlier can never
// flip the profile in either direction.
func (e *Engine) Observe(machineID uuid.UUID, variable string, value float64, at time.Time) *Transition {
	band, ok := e.cfg.Bands[variable]
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := stateKey{machine: machineID, variable: variable}
	st := e.states[key]
	if st == nil {
		st = &trendState{current: ProfileNormal}
		e.states[key] = st
	}

	st.window = append(st.window, observation{
		candidate: classify(st.current, value, band),
		at:        at,
	})
	st.evict(e.cfg.WindowSize, e.cfg.MaxAge, at)

	target, ok := st.confirmed(e.cfg.ConfirmCount)
	if !ok || target == st.current {
		return nil
	}

	from := st.current
	st.current = target
	// Candidates in the window were classified against the old profile;
	// they are stale now that it changed.
	st.window = st.window[:0]

	return &Transition{
		MachineID:  machineID,
		Variable:   variable,
		From:       from,
		To:         target,
		Value:      value,
		ObservedAt: at,
	}
}

// Profile returns the current profile for a pair, defaulting to normal for
// pairs never observed.
func (e *Engine) Profile(machineID uuid.UUID, variable string) Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.states[stateKey{machine: machineID, variable: variable}]; st != nil {
		return st.current
	}
	return ProfileNormal
}

func (s *trendState) evict(maxLen int, maxAge time.Duration, now time.Time) {
	cutoff := now.Add(-maxAge)
	i := 0
	for i < len(s.window) && s.window[i].at.Before(cutoff) {
		i++
	}
	if over := len(s.window) - i - maxLen; over > 0 {
		i += over
	}
	if i > 0 {
		s.window = append(s.window[:0], s.window[i:]...)
	}
}

// confirmed reports the unanimous candidate of the last n observations.
func (s *trendState) confirmed(n int) (Profile, bool) {
	if len(s.window) < n {
		return "", false
	}
	tail := s.window[len(s.window)-n:]
	target := tail[0].candidate
	for _, obs := range tail[1:] {
		if obs.candidate != target {
			return "", false
		}
	}
	return target, true
}

// classify maps one value onto a candidate profile given where the pair
// currently sits. Upward moves use Enter thresholds, downward moves Exit
// thresholds.
func classify(current Profile, v float64, b Band) Profile {
	switch current {
	case ProfileWarning:
		switch {
		case v >= b.CriticalEnter:
			return ProfileCritical
		case v < b.WarningExit:
			return ProfileNormal
		default:
			return ProfileWarning
		}
	case ProfileCritical:
		switch {
		case v < b.WarningExit:
			return ProfileNormal
		case v < b.CriticalExit:
			return ProfileWarning
		default:
			return ProfileCritical
		}
	default:
		switch {
		case v >= b.CriticalEnter:
			return ProfileCritical
		case v >= b.WarningEnter:
			return ProfileWarning
		default:
			return ProfileNormal
		}
	}
}
