package engine

import (
	"reflect"
	"sort"
	"strings"

	"github.com/veldtgame/veldt/core"
)

// queryEntry is one cached archetype query result. Invalidated entries
// stay in the cache and are recomputed lazily on the next read.
type queryEntry struct {
	tags   []reflect.Type
	result []core.Entity
	valid  bool
}

// GetEntitiesWith returns all live entities holding every given component
// type, in entity creation order. Results are cached per tag set and
// recomputed only after a membership change touching one of the tags.
//
// The returned slice is cache-owned: callers must not mutate it, and a
// recompute after a membership change reuses its backing array. Use
// GetEntitiesWithAppend for an owned copy that survives later changes.
func (w *World) GetEntitiesWith(tags ...reflect.Type) []core.Entity {
	if len(tags) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := queryKey(tags)
	entry, ok := w.cache[key]
	if ok && entry.valid {
		return entry.result
	}

	if !ok {
		entry = &queryEntry{tags: append([]reflect.Type(nil), tags...)}
		w.cache[key] = entry
	}

	result := entry.result[:0]
	for _, e := range w.order {
		components := w.slots[e.Index].components
		hasAll := true
		for _, tag := range tags {
			if _, present := components[tag]; !present {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, e)
		}
	}

	entry.result = result
	entry.valid = true
	return entry.result
}

// GetEntitiesWithAppend appends the same result set as GetEntitiesWith to
// dst and returns it. The copy stays valid across later queries and
// membership changes, for callers that retain results past the next read.
func (w *World) GetEntitiesWithAppend(dst []core.Entity, tags ...reflect.Type) []core.Entity {
	return append(dst, w.GetEntitiesWith(tags...)...)
}

// invalidateTagLocked marks every cached query whose tag set contains the
// changed tag. Lazy recompute on next read, nothing is rebuilt eagerly.
func (w *World) invalidateTagLocked(tag reflect.Type) {
	for _, entry := range w.cache {
		if !entry.valid {
			continue
		}
		for _, t := range entry.tags {
			if t == tag {
				entry.valid = false
				break
			}
		}
	}
}

// queryKey builds an order-independent cache key for a tag set.
func queryKey(tags []reflect.Type) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
