package config

import (
	"errors"
	"hash/fnv"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrFeatureNotFound is returned for an unknown flag name.
var ErrFeatureNotFound = errors.New("feature not found")

// Flag names.
const (
	// Unlock toasts on the device's notification queue.
	FeatureNotifications = "gamification.notifications"

	// Voice command interactions count toward achievements.
	FeatureVoiceCommands = "gamification.voice_commands"

	// Live visitor count in analytics metrics; reported as 0 when off.
	FeatureLiveVisitors = "analytics.live_visitors"

	// Separate visitor stats record next to the game state.
	FeatureVisitorStats = "progress.visitor_stats"

	// Store analytics events posted by the site.
	FeatureAnalyticsIngest = "analytics.ingest"
)

// Feature is one toggle. Devices are bucketed by a hash of flag name and
// device id, so a device keeps its bucket across restarts.
type Feature struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Enabled        bool   `json:"enabled"`
	RolloutPercent int    `json:"rollout_percent"`
}

// FeatureFlags holds the flag registry and per-device overrides.
type FeatureFlags struct {
	mu        sync.RWMutex
	features  map[string]*Feature
	overrides map[string]map[string]bool // device -> flag -> enabled
}

// LoadFeatureFlags builds the defaults and applies FEATURE_* variables.
// A variable holds a bool or a rollout percentage, e.g.
// FEATURE_GAMIFICATION_NOTIFICATIONS=false or FEATURE_ANALYTICS_LIVE_VISITORS=25.
func LoadFeatureFlags() *FeatureFlags {
	ff := NewFeatureFlags()
	ff.loadFromEnvironment(os.Getenv)
	return ff
}

// NewFeatureFlags returns the defaults only.
func NewFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:  make(map[string]*Feature),
		overrides: make(map[string]map[string]bool),
	}
	for _, f := range []Feature{
		{Name: FeatureNotifications, Description: "Show achievement unlock notifications", Enabled: true, RolloutPercent: 100},
		{Name: FeatureVoiceCommands, Description: "Count voice navigation commands", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLiveVisitors, Description: "Report live visitors in metrics", Enabled: true, RolloutPercent: 100},
		{Name: FeatureVisitorStats, Description: "Persist the visitor stats record", Enabled: true, RolloutPercent: 100},
		{Name: FeatureAnalyticsIngest, Description: "Store analytics events", Enabled: true, RolloutPercent: 100},
	} {
		f := f
		ff.features[f.Name] = &f
	}
	return ff
}

func (ff *FeatureFlags) loadFromEnvironment(getenv func(string) string) {
	for name, feature := range ff.features {
		val := getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			feature.RolloutPercent = 0
			if b {
				feature.RolloutPercent = 100
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled evaluates name for device. An empty device only sees flags at
// 100% rollout.
func (ff *FeatureFlags) IsEnabled(name, device string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if byFlag, ok := ff.overrides[device]; ok && device != "" {
		if enabled, ok := byFlag[name]; ok {
			return enabled
		}
	}

	f, ok := ff.features[name]
	if !ok || !f.Enabled {
		return false
	}
	if f.RolloutPercent >= 100 {
		return true
	}
	if device == "" {
		return false
	}
	return inRollout(device, name, f.RolloutPercent)
}

// IsGloballyEnabled evaluates name without a device.
func (ff *FeatureFlags) IsGloballyEnabled(name string) bool {
	return ff.IsEnabled(name, "")
}

func inRollout(device, name string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(device))
	return int(h.Sum32()%100) < percent
}

// SetDeviceOverride forces name on or off for device.
func (ff *FeatureFlags) SetDeviceOverride(device, name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.overrides[device]; !ok {
		ff.overrides[device] = make(map[string]bool)
	}
	ff.overrides[device][name] = enabled
}

// SetRolloutPercent changes a flag at runtime.
func (ff *FeatureFlags) SetRolloutPercent(name string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	f.RolloutPercent = percent
	f.Enabled = percent > 0
	return nil
}

// List returns the flags sorted by name.
func (ff *FeatureFlags) List() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
