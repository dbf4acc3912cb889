// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package settings models the settings tree carried in theme.json and
// reconciles a site's stored tree with the tree shipped by a new theme
// version.
//
// A tree node is either a group (a JSON object mapping section names to
// child nodes) or a leaf (a JSON array of setting definitions). Anything
// else in a node position is a parse error: a malformed tree must fail
// loudly at load time, not be silently skipped during a later merge.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Kind distinguishes the two node shapes.
type Kind int

// Node kinds.
const (
	KindGroup Kind = iota
	KindLeaf
)

// Node is one node of a settings tree. The zero value is an empty group.
type Node struct {
	kind  Kind
	group map[string]*Node
	leaf  []Definition
}

// Definition is a single configurable setting inside a leaf. Besides the
// id, the stored value and the shipped default, themes attach arbitrary
// metadata (label, type, options and whatever else the editor renders);
// those keys are preserved verbatim in Meta across load, merge and save.
type Definition struct {
	ID      string
	Value   any
	Default any
	Meta    map[string]any

	// HasValue and HasDefault track JSON key presence. A present null is
	// not the same as an absent key: only an absent value falls back to
	// the default during a merge.
	HasValue   bool
	HasDefault bool
}

// NewGroup builds a group node from its children. A nil map yields an
// empty group.
func NewGroup(children map[string]*Node) *Node {
	if children == nil {
		children = make(map[string]*Node)
	}
	return &Node{kind: KindGroup, group: children}
}

// NewLeaf builds a leaf node from its definitions.
func NewLeaf(defs []Definition) *Node {
	return &Node{kind: KindLeaf, leaf: defs}
}

// Kind reports whether the node is a group or a leaf.
func (n *Node) Kind() Kind {
	return n.kind
}

// Child returns the named child of a group node.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.group[name]
	return c, ok
}

// ChildNames returns the names of a group node's children in sorted order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.group))
	for name := range n.group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns a leaf node's setting definitions. The returned slice
// is the node's own backing storage; callers must not modify it.
func (n *Node) Definitions() []Definition {
	return n.leaf
}

// Find returns the first definition with the given id in a leaf node.
func (n *Node) Find(id string) (Definition, bool) {
	for _, d := range n.leaf {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// UnmarshalJSON decodes a node, deciding its kind from the JSON shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("settings node is empty")
	}

	switch trimmed[0] {
	case '{':
		var group map[string]*Node
		if err := json.Unmarshal(trimmed, &group); err != nil {
			return err
		}
		// encoding/json maps a JSON null to a nil pointer without calling
		// UnmarshalJSON, so nil children have to be rejected here.
		for name, child := range group {
			if child == nil {
				return fmt.Errorf("settings node %q must be an object or an array, got null", name)
			}
		}
		if group == nil {
			group = make(map[string]*Node)
		}
		*n = Node{kind: KindGroup, group: group}
		return nil
	case '[':
		var defs []Definition
		if err := json.Unmarshal(trimmed, &defs); err != nil {
			return err
		}
		*n = Node{kind: KindLeaf, leaf: defs}
		return nil
	default:
		return fmt.Errorf("settings node must be an object or an array, got %s", string(trimmed[0]))
	}
}

// MarshalJSON encodes the node back to its JSON shape. Group keys are
// emitted in sorted order so repeated saves of the same tree are
// byte-identical.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.kind == KindLeaf {
		if n.leaf == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(n.leaf)
	}
	if n.group == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(n.group)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	if n.kind == KindLeaf {
		defs := make([]Definition, len(n.leaf))
		for i, d := range n.leaf {
			defs[i] = d.clone()
		}
		return &Node{kind: KindLeaf, leaf: defs}
	}
	group := make(map[string]*Node, len(n.group))
	for name, child := range n.group {
		group[name] = child.Clone()
	}
	return &Node{kind: KindGroup, group: group}
}

// UnmarshalJSON decodes a setting definition, requiring a non-empty string
// id and collecting unknown keys into Meta.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("setting entry is not an object: %w", err)
	}

	idRaw, ok := raw["id"]
	if !ok {
		return errors.New(`setting entry has no "id"`)
	}
	id, ok := idRaw.(string)
	if !ok || id == "" {
		return errors.New(`setting entry "id" must be a non-empty string`)
	}

	*d = Definition{ID: id}
	if v, ok := raw["value"]; ok {
		d.Value = v
		d.HasValue = true
	}
	if v, ok := raw["default"]; ok {
		d.Default = v
		d.HasDefault = true
	}
	for k, v := range raw {
		if k == "id" || k == "value" || k == "default" {
			continue
		}
		if d.Meta == nil {
			d.Meta = make(map[string]any)
		}
		d.Meta[k] = v
	}
	return nil
}

// MarshalJSON encodes the definition with its metadata keys restored.
func (d Definition) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Meta)+3)
	for k, v := range d.Meta {
		out[k] = v
	}
	out["id"] = d.ID
	if d.HasValue {
		out["value"] = d.Value
	}
	if d.HasDefault {
		out["default"] = d.Default
	}
	return json.Marshal(out)
}

// clone returns a deep copy of the definition.
func (d Definition) clone() Definition {
	out := Definition{
		ID:         d.ID,
		Value:      copyValue(d.Value),
		Default:    copyValue(d.Default),
		HasValue:   d.HasValue,
		HasDefault: d.HasDefault,
	}
	if d.Meta != nil {
		out.Meta = make(map[string]any, len(d.Meta))
		for k, v := range d.Meta {
			out.Meta[k] = copyValue(v)
		}
	}
	return out
}

// copyValue deep-copies a decoded JSON value (maps, slices, scalars).
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
