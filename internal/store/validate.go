package store

import (
	"github.com/jordanwest/tkt/internal/types"
)

// checkItemCapabilities rejects a create whose fields the active remote
// cannot represent. A field passes when it is absent or at its neutral
// default (empty string/slice, medium priority, no parent, no due date).
func (s *Store) checkItemCapabilities(item *types.WorkItem) error {
	caps := s.caps
	if !caps.Iterations && item.Iteration != "" {
		return unsupported("iteration")
	}
	if !caps.Labels && len(item.Labels) > 0 {
		return unsupported("labels")
	}
	if !caps.Priority && item.Priority != "" && item.Priority != types.DefaultPriority {
		return unsupported("priority")
	}
	if !caps.Assignees && item.Assignee != "" {
		return unsupported("assignee")
	}
	if !caps.Parent && item.Parent != "" {
		return unsupported("parent")
	}
	if !caps.Dependencies && len(item.DependsOn) > 0 {
		return unsupported("depends_on")
	}
	if !caps.DueDates && item.Due != nil {
		return unsupported("due")
	}
	return nil
}

// checkPatchCapabilities is the update-side twin: only fields present in
// the patch are checked, and a present-but-neutral value still passes
// (clearing an unsupported field is always allowed).
func (s *Store) checkPatchCapabilities(patch *types.ItemPatch) error {
	caps := s.caps
	if !caps.Iterations && patch.Iteration != nil && *patch.Iteration != "" {
		return unsupported("iteration")
	}
	if !caps.Labels && patch.Labels != nil && len(*patch.Labels) > 0 {
		return unsupported("labels")
	}
	if !caps.Priority && patch.Priority != nil && *patch.Priority != types.DefaultPriority {
		return unsupported("priority")
	}
	if !caps.Assignees && patch.Assignee != nil && *patch.Assignee != "" {
		return unsupported("assignee")
	}
	if !caps.Parent && patch.Parent != nil && *patch.Parent != "" {
		return unsupported("parent")
	}
	if !caps.Dependencies && patch.DependsOn != nil && len(*patch.DependsOn) > 0 {
		return unsupported("depends_on")
	}
	if !caps.DueDates && patch.Due != nil {
		return unsupported("due")
	}
	return nil
}

func unsupported(field string) error {
	return &types.ValidationError{Kind: types.ValidationUnsupportedField, Field: field}
}

// validateRelationships checks a prospective parent and dependency set
// against the current item graph. id is the item being written; parent
// is the prospective parent ("" for none); listed is the full dependsOn
// set present in the write; added holds only the newly introduced
// dependency edges, each of which gets its own reachability check -
// a cycle can be introduced through any one new edge.
func validateRelationships(all map[string]*types.WorkItem, id, parent string, listed, added []string) error {
	if parent != "" {
		if parent == id {
			return &types.ValidationError{Kind: types.ValidationSelfReference, ID: id}
		}
		if _, ok := all[parent]; !ok {
			return &types.ValidationError{Kind: types.ValidationDanglingReference, ID: id, Ref: parent}
		}
		if err := checkParentChain(all, id, parent); err != nil {
			return err
		}
	}

	for _, dep := range listed {
		if dep == id {
			return &types.ValidationError{Kind: types.ValidationSelfReference, ID: id}
		}
		if _, ok := all[dep]; !ok {
			return &types.ValidationError{Kind: types.ValidationDanglingReference, ID: id, Ref: dep}
		}
	}

	for _, dep := range added {
		if reachable(all, dep, id) {
			return &types.ValidationError{Kind: types.ValidationCycleDetected, ID: id, Ref: dep}
		}
	}

	return nil
}

// checkParentChain walks up from the prospective parent through each
// node's own parent pointer. Encountering id means the new edge would
// close a cycle. The visited set terminates the walk even if the stored
// data already contains a loop.
func checkParentChain(all map[string]*types.WorkItem, id, parent string) error {
	visited := make(map[string]bool)
	current := parent

	for current != "" {
		if current == id {
			return &types.ValidationError{Kind: types.ValidationCycleDetected, ID: id, Ref: parent}
		}
		if visited[current] {
			break
		}
		visited[current] = true

		node, ok := all[current]
		if !ok {
			break
		}
		current = node.Parent
	}
	return nil
}

// reachable reports whether target can be reached from start by
// following existing dependsOn edges (BFS, visited-set guarded).
func reachable(all map[string]*types.WorkItem, start, target string) bool {
	if start == target {
		return true
	}

	visited := make(map[string]bool)
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := all[current]
		if !ok {
			continue
		}
		for _, dep := range node.DependsOn {
			if dep == target {
				return true
			}
			if !visited[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return false
}

// newDependencies returns the entries of listed that are not already in
// existing, preserving order.
func newDependencies(existing, listed []string) []string {
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[d] = true
	}
	var added []string
	for _, d := range listed {
		if !have[d] {
			added = append(added, d)
		}
	}
	return added
}
