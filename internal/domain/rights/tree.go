package rights

import (
	"fmt"
	"strconv"
	"strings"
)

type MenuNode struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
	Children    []MenuNode  `json:"children,omitempty"`
}

// Forest is the ordered list of top-level menus granted to one role.
// Forests are treated as immutable values: every mutation in this package
// returns a new Forest and never writes through to the input.
type Forest []MenuNode

// Path addresses a node by child indices from the forest root. A path is
// only meaningful for the forest snapshot it was derived from.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

func ParsePath(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(raw, ".")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
		out = append(out, idx)
	}
	return out, nil
}

func (p Path) child(idx int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, idx)
}

func (n MenuNode) Clone() MenuNode {
	n.Children = cloneNodes(n.Children)
	return n
}

func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	return Forest(cloneNodes(f))
}

func cloneNodes(nodes []MenuNode) []MenuNode {
	if nodes == nil {
		return nil
	}
	out := make([]MenuNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Equal compares identity, order, count and permissions of every node.
// Names are display-only and do not take part.
func Equal(a, b Forest) bool {
	return nodesEqual(a, b)
}

func nodesEqual(a, b []MenuNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Permissions != b[i].Permissions {
			return false
		}
		if !nodesEqual(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

// Walk visits every node in pre-order. Returning false from fn stops the walk.
func (f Forest) Walk(fn func(path Path, node MenuNode) bool) {
	walkNodes(f, nil, fn)
}

func walkNodes(nodes []MenuNode, prefix Path, fn func(Path, MenuNode) bool) bool {
	for i, n := range nodes {
		path := prefix.child(i)
		if !fn(path, n) {
			return false
		}
		if !walkNodes(n.Children, path, fn) {
			return false
		}
	}
	return true
}

func (f Forest) NodeAt(path Path) (MenuNode, error) {
	if len(path) == 0 {
		return MenuNode{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	nodes := []MenuNode(f)
	var node MenuNode
	for depth, idx := range path {
		if idx < 0 || idx >= len(nodes) {
			return MenuNode{}, fmt.Errorf("%w: index %d at depth %d (path %s)", ErrInvalidPath, idx, depth, path)
		}
		node = nodes[idx]
		nodes = node.Children
	}
	return node, nil
}

func (f Forest) Len() int {
	count := 0
	f.Walk(func(Path, MenuNode) bool {
		count++
		return true
	})
	return count
}

func (f Forest) Validate() error {
	seen := map[int64]Path{}
	var dup error
	f.Walk(func(path Path, n MenuNode) bool {
		if prev, ok := seen[n.ID]; ok {
			dup = fmt.Errorf("%w: %d at %s and %s", ErrDuplicateMenuID, n.ID, prev, path)
			return false
		}
		seen[n.ID] = path
		return true
	})
	return dup
}

func (f Forest) Find(menuID int64) (MenuNode, Path, bool) {
	var found MenuNode
	var at Path
	f.Walk(func(path Path, n MenuNode) bool {
		if n.ID == menuID {
			found, at = n, path
			return false
		}
		return true
	})
	return found, at, at != nil
}

func (f Forest) Allows(menuID int64, c Capability) bool {
	n, _, ok := f.Find(menuID)
	return ok && n.Permissions.Get(c)
}

// Visible keeps only nodes with the view capability. A hidden parent hides
// its whole subtree.
func (f Forest) Visible() Forest {
	return Forest(visibleNodes(f))
}

func visibleNodes(nodes []MenuNode) []MenuNode {
	var out []MenuNode
	for _, n := range nodes {
		if !n.Permissions.View {
			continue
		}
		n.Children = visibleNodes(n.Children)
		out = append(out, n)
	}
	return out
}

type Change struct {
	MenuID     int64      `json:"menuId"`
	Capability Capability `json:"capability"`
	From       bool       `json:"from"`
	To         bool       `json:"to"`
}

// Diff lists capability changes between two snapshots of the same menu set,
// matched by menu id. Menus present on only one side are reported against
// an all-false counterpart.
func Diff(before, after Forest) []Change {
	prev := map[int64]Permissions{}
	before.Walk(func(_ Path, n MenuNode) bool {
		prev[n.ID] = n.Permissions
		return true
	})

	var out []Change
	seen := map[int64]struct{}{}
	after.Walk(func(_ Path, n MenuNode) bool {
		seen[n.ID] = struct{}{}
		out = appendChanges(out, n.ID, prev[n.ID], n.Permissions)
		return true
	})
	before.Walk(func(_ Path, n MenuNode) bool {
		if _, ok := seen[n.ID]; !ok {
			out = appendChanges(out, n.ID, n.Permissions, Permissions{})
		}
		return true
	})
	return out
}

func appendChanges(out []Change, menuID int64, from, to Permissions) []Change {
	for _, c := range Capabilities {
		if from.Get(c) != to.Get(c) {
			out = append(out, Change{MenuID: menuID, Capability: c, From: from.Get(c), To: to.Get(c)})
		}
	}
	return out
}
