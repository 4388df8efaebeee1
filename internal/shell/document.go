// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell holds the document the terminal host renders from and the
// synchronizer that keeps it aligned with configuration.
//
// The Document stands in for the browser root element: a set of root
// classes, the light and dark theme-color hints, and the lang attribute.
package shell

import (
	"sort"
	"sync"
)

// Theme-color hint slots.
const (
	HintLight = "light"
	HintDark  = "dark"
)

// Document is the mutable root of the UI. It is safe for concurrent use.
type Document struct {
	mu      sync.RWMutex
	classes map[string]struct{}
	hints   map[string]string
	lang    string
	version uint64
}

// Snapshot is an immutable copy of a Document.
type Snapshot struct {
	Classes []string
	Hints   map[string]string
	Lang    string
	Version uint64
}

// NewDocument returns an empty Document with lang "en".
func NewDocument() *Document {
	return &Document{
		classes: make(map[string]struct{}),
		hints:   make(map[string]string),
		lang:    "en",
	}
}

// AddClass adds a root class.
func (d *Document) AddClass(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.classes[name]; !ok {
		d.classes[name] = struct{}{}
		d.version++
	}
}

// RemoveClass removes a root class if present.
func (d *Document) RemoveClass(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.classes[name]; ok {
		delete(d.classes, name)
		d.version++
	}
}

// SwapClasses removes every class in remove, then adds add (if non-empty),
// as one mutation. The version only moves when the resulting set differs.
func (d *Document) SwapClasses(remove []string, add string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for _, name := range remove {
		if name == add {
			continue
		}
		if _, ok := d.classes[name]; ok {
			delete(d.classes, name)
			changed = true
		}
	}
	if add != "" {
		if _, ok := d.classes[add]; !ok {
			d.classes[add] = struct{}{}
			changed = true
		}
	}
	if changed {
		d.version++
	}
}

// HasClass reports whether the root carries class name.
func (d *Document) HasClass(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.classes[name]
	return ok
}

// Classes returns the root classes in sorted order.
func (d *Document) Classes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sortedClasses()
}

func (d *Document) sortedClasses() []string {
	out := make([]string, 0, len(d.classes))
	for c := range d.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetHint sets the theme-color hint for slot.
func (d *Document) SetHint(slot, color string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hints[slot] != color {
		d.hints[slot] = color
		d.version++
	}
}

// Hint returns the theme-color hint for slot.
func (d *Document) Hint(slot string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hints[slot]
}

// Lang returns the lang attribute.
func (d *Document) Lang() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lang
}

// SetLang sets the lang attribute and reports whether it changed.
func (d *Document) SetLang(lang string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lang == lang {
		return false
	}
	d.lang = lang
	d.version++
	return true
}

// Version increases on every effective mutation.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Snapshot copies the current state.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hints := make(map[string]string, len(d.hints))
	for k, v := range d.hints {
		hints[k] = v
	}
	return Snapshot{
		Classes: d.sortedClasses(),
		Hints:   hints,
		Lang:    d.lang,
		Version: d.version,
	}
}
