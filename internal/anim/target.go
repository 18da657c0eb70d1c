package anim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/scenebake/pkg/scene"
)

// Target is a resolved animatable slot: Count values starting at Offset in the
// flattened values of one transform op.
type Target struct {
	Node   int
	Op     int
	Kind   scene.OpKind
	Offset int
	Count  int
}

// Rows returns the number of rows of the op's addressable layout.
func (t Target) Rows() int {
	if t.Kind == scene.OpMatrix {
		return 4
	}
	return 1
}

// Columns returns the number of columns of the op's addressable layout.
func (t Target) Columns() int {
	if t.Kind == scene.OpMatrix {
		return 4
	}
	return t.Kind.Size()
}

// ResolveTarget maps a channel target to an op slot. Member selectors are
// "" (whole op), X, Y, Z, ANGLE (rotate only), (r)(c) and (i).
func ResolveTarget(s *scene.Scene, tgt scene.Target) (Target, error) {
	if tgt.Morph {
		return Target{}, ErrMorphTarget
	}
	if tgt.Node < 0 || tgt.Node >= len(s.Nodes) {
		return Target{}, fmt.Errorf("node %d: %w", tgt.Node, ErrTargetNotFound)
	}
	node := &s.Nodes[tgt.Node]
	op := node.OpIndex(tgt.SID)
	if op < 0 {
		return Target{}, fmt.Errorf("%s/%s: %w", node.DisplayName(), tgt.SID, ErrTargetNotFound)
	}
	t := Target{Node: tgt.Node, Op: op, Kind: node.Transforms[op].Kind}

	offset, count, err := t.member(tgt.Member)
	if err != nil {
		return Target{}, fmt.Errorf("%s/%s.%s: %w", node.DisplayName(), tgt.SID, tgt.Member, err)
	}
	t.Offset, t.Count = offset, count
	return t, nil
}

func (t Target) member(m string) (int, int, error) {
	size := t.Rows() * t.Columns()
	switch strings.ToUpper(m) {
	case "":
		return 0, size, nil
	case "X":
		return t.element(0)
	case "Y":
		return t.element(1)
	case "Z":
		return t.element(2)
	case "ANGLE":
		if t.Kind != scene.OpRotate {
			return 0, 0, ErrInvalidMember
		}
		return 3, 1, nil
	}

	idx, err := parseSubscripts(m)
	if err != nil {
		return 0, 0, err
	}
	switch len(idx) {
	case 1:
		return t.element(idx[0])
	case 2:
		if idx[0] >= t.Rows() || idx[1] >= t.Columns() {
			return 0, 0, ErrInvalidMember
		}
		return idx[0]*t.Columns() + idx[1], 1, nil
	}
	return 0, 0, ErrInvalidMember
}

func (t Target) element(i int) (int, int, error) {
	if i < 0 || i >= t.Rows()*t.Columns() {
		return 0, 0, ErrInvalidMember
	}
	return i, 1, nil
}

// parseSubscripts parses "(a)" or "(a)(b)".
func parseSubscripts(m string) ([]int, error) {
	var out []int
	for len(m) > 0 {
		if m[0] != '(' {
			return nil, ErrInvalidMember
		}
		end := strings.IndexByte(m, ')')
		if end < 0 {
			return nil, ErrInvalidMember
		}
		v, err := strconv.Atoi(m[1:end])
		if err != nil || v < 0 {
			return nil, ErrInvalidMember
		}
		out = append(out, v)
		m = m[end+1:]
	}
	if len(out) == 0 || len(out) > 2 {
		return nil, ErrInvalidMember
	}
	return out, nil
}
