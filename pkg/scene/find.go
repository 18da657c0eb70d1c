package scene

import "strings"

// FindScoped resolves a scoped path below (and including) root. Each
// '/'-separated segment is searched breadth-first from the previous match,
// preferring SID matches, then ID, then name. It returns -1 when unresolved.
func (s *Scene) FindScoped(root int, path string) int {
	if root < 0 || root >= len(s.Nodes) || path == "" {
		return -1
	}
	scope := root
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		scope = s.findBreadthFirst(scope, seg)
		if scope < 0 {
			return -1
		}
	}
	return scope
}

func (s *Scene) findBreadthFirst(root int, key string) int {
	matchers := []func(n *Node) bool{
		func(n *Node) bool { return n.SID == key },
		func(n *Node) bool { return n.ID == key },
		func(n *Node) bool { return n.Name == key },
	}
	for _, match := range matchers {
		queue := []int{root}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			if match(&s.Nodes[i]) {
				return i
			}
			queue = append(queue, s.Nodes[i].Children...)
		}
	}
	return -1
}

// IsAncestor reports whether a is a proper ancestor of n.
func (s *Scene) IsAncestor(a, n int) bool {
	for p := s.Nodes[n].Parent; p >= 0; p = s.Nodes[p].Parent {
		if p == a {
			return true
		}
	}
	return false
}
