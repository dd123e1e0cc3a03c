// Package repair rebuilds damaged configuration documents field by field.
//
// The repairer walks the schema in declaration order and compares each
// field of a candidate document against it. Valid values are kept, missing
// or invalid values are filled from a known-good default document, unknown
// keys are dropped, and every correction is recorded as a Change so callers
// can audit exactly what was altered.
package repair

import (
	"sort"
	"strconv"

	"github.com/dshills/reconfig/internal/config/layer"
	"github.com/dshills/reconfig/internal/config/schema"
)

// EntireObject marks a change that replaced a whole object node at once
// rather than repairing its fields individually.
const EntireObject = "<entire_object>"

// Reason categorizes why a field was changed during repair.
type Reason string

const (
	// ReasonMissing indicates a required field was absent and filled from defaults.
	ReasonMissing Reason = "missing"
	// ReasonInvalid indicates a present value failed validation and was replaced.
	ReasonInvalid Reason = "invalid"
	// ReasonDropped indicates an unrecognized key or array element was removed.
	ReasonDropped Reason = "dropped"
)

// Change records a single correction made during repair.
type Change struct {
	Path   string
	Reason Reason
}

// Result holds the repaired document and the list of corrections applied.
type Result struct {
	Fixed   map[string]any
	Changes []Change
}

// Changed reports whether any corrections were applied.
func (r Result) Changed() bool {
	return len(r.Changes) > 0
}

// Repair reconciles candidate against the schema, pulling replacement
// values from defaults. Neither input is mutated. Repairing an already
// repaired document yields no further changes.
func Repair(candidate, defaults map[string]any, s *schema.Schema) Result {
	if candidate == nil {
		candidate = map[string]any{}
	}
	fixed, changes := repairObject("", s, candidate, defaults)
	return Result{Fixed: fixed, Changes: changes}
}

// repairObject repairs one object node. prefix is the dotted path of the
// node, empty at the root.
func repairObject(prefix string, s *schema.Schema, candidate, defaults map[string]any) (map[string]any, []Change) {
	fixed := make(map[string]any, len(s.Properties))
	var changes []Change

	for _, name := range s.PropertyNames() {
		child := s.GetProperty(name)
		if child == nil {
			continue
		}

		path := joinPath(prefix, name)
		defVal, hasDefault := defaults[name]
		candVal, present := candidate[name]

		switch {
		case child.IsObject():
			defMap, _ := defVal.(map[string]any)
			candMap, isMap := candVal.(map[string]any)

			if !present {
				if hasDefault {
					fixed[name] = layer.Clone(defMap)
					changes = append(changes, Change{Path: path, Reason: ReasonMissing})
				}
				continue
			}
			if !isMap {
				// Wrong shape entirely. Replace the node atomically.
				fixed[name] = layer.Clone(defMap)
				changes = append(changes, Change{Path: joinPath(path, EntireObject), Reason: ReasonInvalid})
				continue
			}

			sub, subChanges := repairObject(path, child, candMap, defMap)
			fixed[name] = sub
			changes = append(changes, subChanges...)

		case child.Items != nil:
			if !present {
				if hasDefault {
					fixed[name] = cloneAny(defVal)
					changes = append(changes, Change{Path: path, Reason: ReasonMissing})
				}
				continue
			}

			arr, isSlice := candVal.([]any)
			if !isSlice {
				fixed[name] = cloneAny(defVal)
				changes = append(changes, Change{Path: path, Reason: ReasonInvalid})
				continue
			}

			kept, elemChanges := repairArray(path, child, arr)
			if schema.ValidateField(name, child, kept) {
				fixed[name] = kept
				changes = append(changes, elemChanges...)
			} else {
				// Even after dropping bad elements the array violates a
				// constraint such as minItems. Fall back to the default.
				fixed[name] = cloneAny(defVal)
				changes = append(changes, Change{Path: path, Reason: ReasonInvalid})
			}

		default:
			if !present {
				if hasDefault {
					fixed[name] = cloneAny(defVal)
					changes = append(changes, Change{Path: path, Reason: ReasonMissing})
				}
				continue
			}
			if schema.ValidateField(name, child, candVal) {
				fixed[name] = cloneAny(candVal)
			} else if hasDefault {
				fixed[name] = cloneAny(defVal)
				changes = append(changes, Change{Path: path, Reason: ReasonInvalid})
			} else {
				// Invalid with no replacement available. Remove it.
				changes = append(changes, Change{Path: path, Reason: ReasonDropped})
			}
		}
	}

	// Keys the schema does not know about are dropped unless the schema
	// explicitly allows additional properties.
	if s.AllowsAdditionalProperties() {
		for key, val := range candidate {
			if !s.HasProperty(key) {
				fixed[key] = cloneAny(val)
			}
		}
	} else {
		for _, name := range sortedKeys(candidate) {
			if !s.HasProperty(name) {
				changes = append(changes, Change{Path: joinPath(prefix, name), Reason: ReasonDropped})
			}
		}
	}

	return fixed, changes
}

// repairArray keeps the elements of arr that satisfy the item schema and
// records a dropped change for each element removed.
func repairArray(path string, s *schema.Schema, arr []any) ([]any, []Change) {
	kept := make([]any, 0, len(arr))
	var changes []Change

	for i, elem := range arr {
		if schema.IsValid(s.Items, elem) {
			kept = append(kept, cloneAny(elem))
		} else {
			changes = append(changes, Change{Path: indexPath(path, i), Reason: ReasonDropped})
		}
	}

	return kept, changes
}

func cloneAny(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return layer.Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneAny(elem)
		}
		return out
	default:
		return val
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// sortedKeys returns the map keys in sorted order so dropped-key changes
// are reported deterministically.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
