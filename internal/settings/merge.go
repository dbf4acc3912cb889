// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package settings

// Merge reconciles a site's stored settings tree with the tree shipped by
// a new theme version. The new tree dictates structure and metadata: its
// groups, leaves, definition order and metadata keys appear in the result
// unchanged. The stored tree contributes only values the site owner has
// set.
//
// At each leaf, for every definition in the new tree:
//   - a stored definition with the same id and an explicit value carries
//     that value forward;
//   - otherwise the new definition's own value is kept if present;
//   - otherwise the value is materialized from the new default, so every
//     definition leaves the merge with a concrete value when one exists.
//
// Stored definitions whose id no longer appears in the new tree are
// dropped, as are stored branches whose shape disagrees with the new tree.
// Neither input is modified; the result shares no memory with either.
func Merge(old, new *Node) *Node {
	if new == nil {
		return nil
	}
	if new.kind == KindLeaf {
		var oldDefs []Definition
		if old != nil && old.kind == KindLeaf {
			oldDefs = old.leaf
		}
		return &Node{kind: KindLeaf, leaf: mergeDefinitions(oldDefs, new.leaf)}
	}

	group := make(map[string]*Node, len(new.group))
	for name, newChild := range new.group {
		var oldChild *Node
		if old != nil && old.kind == KindGroup {
			oldChild = old.group[name]
		}
		group[name] = Merge(oldChild, newChild)
	}
	return &Node{kind: KindGroup, group: group}
}

func mergeDefinitions(old, new []Definition) []Definition {
	out := make([]Definition, len(new))
	for i, nd := range new {
		merged := nd.clone()
		if od, ok := findDefinition(old, nd.ID); ok && od.HasValue {
			merged.Value = copyValue(od.Value)
			merged.HasValue = true
		} else if !merged.HasValue && merged.HasDefault {
			merged.Value = copyValue(merged.Default)
			merged.HasValue = true
		}
		out[i] = merged
	}
	return out
}

func findDefinition(defs []Definition, id string) (Definition, bool) {
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
