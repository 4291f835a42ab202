package parameter

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/veldtgame/veldt/logger"
)

var (
	loadOnce sync.Once
	loaded   *CollisionConfig
)

// LoadCollisionConfig loads the collision configuration from the JSON
// document at path, at most once per process. Concurrent callers block on
// the in-flight load and receive the same result. Any failure substitutes
// the complete built-in defaults; the returned config is never nil or
// partial. Must be called before the first simulation tick.
func LoadCollisionConfig(path string) *CollisionConfig {
	loadOnce.Do(func() {
		loaded = loadCollisionConfig(path)
	})
	return loaded
}

// loadCollisionConfig performs a single load. Unknown top-level groups
// and unknown fields are ignored; fields missing from a supplied group
// keep their defaults, so partial overrides are legal.
func loadCollisionConfig(path string) *CollisionConfig {
	cfg := DefaultCollisionConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Log.WithError(err).WithField("path", path).
			Warn("collision config unreadable, using built-in defaults")
		return DefaultCollisionConfig()
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(data, &groups); err != nil {
		logger.Log.WithError(err).WithField("path", path).
			Warn("collision config malformed, using built-in defaults")
		return DefaultCollisionConfig()
	}

	mergeGroup(groups, "separation", &cfg.Separation)
	mergeGroup(groups, "physics", &cfg.Physics)
	mergeGroup(groups, "idle", &cfg.Idle)
	mergeGroup(groups, "combat", &cfg.Combat)
	mergeGroup(groups, "arrival", &cfg.Arrival)
	mergeGroup(groups, "defaults", &cfg.Defaults)
	mergeGroup(groups, "buildingAvoidance", &cfg.BuildingAvoidance)
	mergeGroup(groups, "stuckDetection", &cfg.StuckDetection)

	return cfg
}

// mergeGroup overlays a supplied JSON group onto the default-filled
// target. Absent fields keep their defaults (partial overrides are
// legal); a malformed group is dropped whole rather than half-applied.
func mergeGroup[T any](groups map[string]json.RawMessage, name string, target *T) {
	raw, ok := groups[name]
	if !ok {
		return
	}
	tmp := *target
	if err := json.Unmarshal(raw, &tmp); err != nil {
		logger.Log.WithError(err).WithField("group", name).
			Warn("collision config group malformed, keeping defaults for group")
		return
	}
	*target = tmp
}
