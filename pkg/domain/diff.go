package domain

import (
	"reflect"
	"sort"
)

// SnapshotDiff represents the changes between two snapshots of a dialogue.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	DialogueName string `json:"dialogue_name"`

	// States maps each resource whose state changed to its new state.
	States map[string]ResourceState `json:"states,omitempty"`

	// Data lists resources whose payload changed, added or was cleared.
	Data []string `json:"data,omitempty"`

	// Added lists resources present only in the new snapshot (dynamic clones).
	Added []string `json:"added,omitempty"`

	// ExtrasDelta contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Extras map[string]any `json:"extras,omitempty"`

	// Closed is set when the dialogue ended between the two snapshots.
	Closed bool `json:"closed,omitempty"`
}

// Diff calculates the difference between two snapshots of the same dialogue.
// A nil old snapshot yields a diff describing the whole new one.
// A nil new snapshot means the dialogue was discarded.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if oldSnap == nil && newSnap == nil {
		return nil
	}
	if newSnap == nil {
		return &SnapshotDiff{DialogueName: oldSnap.DialogueName, Closed: true}
	}

	diff := &SnapshotDiff{DialogueName: newSnap.DialogueName}
	states := make(map[string]ResourceState)

	for name, nr := range newSnap.Resources {
		var or *Resource
		if oldSnap != nil {
			or = oldSnap.Resources[name]
		}
		if or == nil {
			if oldSnap != nil {
				diff.Added = append(diff.Added, name)
			}
			states[name] = nr.State
			if nr.Data != nil {
				diff.Data = append(diff.Data, name)
			}
			continue
		}
		if or.State != nr.State {
			states[name] = nr.State
		}
		if !reflect.DeepEqual(or.Data, nr.Data) {
			diff.Data = append(diff.Data, name)
		}
	}
	if len(states) > 0 {
		diff.States = states
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Data)

	var oldExtras map[string]any
	if oldSnap != nil {
		oldExtras = oldSnap.Extras
	}
	diff.Extras = diffExtras(oldExtras, newSnap.Extras)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffExtras(old, new map[string]any) map[string]any {
	delta := make(map[string]any)

	// Added or modified
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.States) == 0 &&
		len(d.Data) == 0 &&
		len(d.Added) == 0 &&
		len(d.Extras) == 0 &&
		!d.Closed
}
