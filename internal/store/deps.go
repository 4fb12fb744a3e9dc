package store

import "github.com/alexanderramin/noteline/internal/domain"

// HasCircularDependency reports whether adding the edge taskID -> candidateID
// would leave the project's dependency graph with a cycle. The edge is treated
// as already present during the walk. Only tasks have outgoing edges.
//
// The check is advisory: UpdateItem does not run it, so callers must consult
// it before committing a dependency change.
func (s *ProjectStore) HasCircularDependency(projectID, taskID, candidateID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return false
	}
	if it, _ := p.FindItem(taskID); it == nil || it.Type() != domain.ItemTask {
		return false
	}
	if taskID == candidateID {
		return true
	}

	edges := func(id string) []string {
		it, _ := p.FindItem(id)
		task, ok := it.(*domain.Task)
		if !ok {
			return nil
		}
		if id == taskID && !task.DependsOn(candidateID) {
			return append(task.Dependencies[:len(task.Dependencies):len(task.Dependencies)], candidateID)
		}
		return task.Dependencies
	}

	return hasCycleFrom(taskID, edges)
}

type frame struct {
	id    string
	edges []string
	next  int
}

// hasCycleFrom runs an iterative depth-first walk from root and reports
// whether it meets a back-edge to a node still on the current path.
func hasCycleFrom(root string, edges func(string) []string) bool {
	visited := map[string]bool{root: true}
	onStack := map[string]bool{root: true}
	stack := []*frame{{id: root, edges: edges(root)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.edges) {
			onStack[top.id] = false
			stack = stack[:len(stack)-1]
			continue
		}
		dep := top.edges[top.next]
		top.next++

		if onStack[dep] {
			return true
		}
		if visited[dep] {
			continue
		}
		visited[dep] = true
		onStack[dep] = true
		stack = append(stack, &frame{id: dep, edges: edges(dep)})
	}
	return false
}
