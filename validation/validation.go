// Package validation provides declarative rule aggregation over key/value
// sources. Rule sets are plain data that can be merged across components;
// validating never short-circuits, so one pass reports every failure.
package validation

import (
	"fmt"
	"slices"
	"strings"
)

// Source supplies values for validation by key.
type Source interface {
	Value(key string) (value any, present bool)
}

// MapSource adapts a plain map to the Source interface.
type MapSource map[string]any

func (m MapSource) Value(key string) (any, bool) {
	value, present := m[key]
	return value, present
}

// Rule checks a single value. present is false when the source has no entry
// for the key; every built-in rule except Required treats an absent value
// as valid.
type Rule func(value any, present bool) error

// Rules maps keys to the rules that must hold for them.
type Rules map[string][]Rule

// Merge combines two rule sets into a new one, leaving both inputs
// untouched. Rules for shared keys run in receiver-then-other order.
func (r Rules) Merge(other Rules) Rules {
	merged := make(Rules, len(r)+len(other))
	for key, rules := range r {
		merged[key] = slices.Clone(rules)
	}
	for key, rules := range other {
		merged[key] = append(merged[key], rules...)
	}
	return merged
}

// Validate runs every rule for every key against src and aggregates all
// failures. A clean source yields nil.
func (r Rules) Validate(src Source) Errors {
	var errs Errors
	for key, rules := range r {
		value, present := src.Value(key)
		for _, rule := range rules {
			err := rule(value, present)
			if err == nil {
				continue
			}
			if errs == nil {
				errs = make(Errors)
			}
			errs[key] = append(errs[key], err)
		}
	}
	return errs
}

// Errors aggregates validation failures by key. A nil Errors means the
// source was valid.
type Errors map[string][]error

// Merge combines two failure sets into a new one, leaving both inputs
// untouched. Merging two empty sets yields nil.
func (e Errors) Merge(other Errors) Errors {
	if len(e) == 0 && len(other) == 0 {
		return nil
	}
	merged := make(Errors, len(e)+len(other))
	for key, errs := range e {
		merged[key] = slices.Clone(errs)
	}
	for key, errs := range other {
		merged[key] = append(merged[key], errs...)
	}
	return merged
}

// Error renders the failures deterministically, keys in sorted order.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		messages := make([]string, 0, len(e[key]))
		for _, err := range e[key] {
			messages = append(messages, err.Error())
		}
		fmt.Fprintf(&b, "%s: %s", key, strings.Join(messages, ", "))
	}
	return b.String()
}

// ErrorOrNil returns e as a plain error, or nil when there are no
// failures. Use this instead of returning Errors directly to avoid a
// non-nil error interface wrapping a nil map.
func (e Errors) ErrorOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
