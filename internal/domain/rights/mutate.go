package rights

import "fmt"

// Toggle sets capability c on the node at path and nowhere else. Only the
// slices along the path are copied; every other subtree is shared with f.
func Toggle(f Forest, path Path, c Capability, value bool) (Forest, error) {
	return update(f, path, c, func(n MenuNode) MenuNode {
		n.Permissions = n.Permissions.With(c, value)
		return n
	})
}

// Cascade sets capability c on the node at path and on every descendant.
func Cascade(f Forest, path Path, c Capability, value bool) (Forest, error) {
	return update(f, path, c, func(n MenuNode) MenuNode {
		return cascadeNode(n, c, value)
	})
}

// Master sets capability c on every node of the forest. It is equivalent to
// a Cascade rooted at each top-level node.
func Master(f Forest, c Capability, value bool) (Forest, error) {
	c, err := ParseCapability(string(c))
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	out := make(Forest, len(f))
	for i, n := range f {
		out[i] = cascadeNode(n, c, value)
	}
	return out, nil
}

func cascadeNode(n MenuNode, c Capability, value bool) MenuNode {
	n.Permissions = n.Permissions.With(c, value)
	if n.Children != nil {
		children := make([]MenuNode, len(n.Children))
		for i, child := range n.Children {
			children[i] = cascadeNode(child, c, value)
		}
		n.Children = children
	}
	return n
}

func update(f Forest, path Path, c Capability, fn func(MenuNode) MenuNode) (Forest, error) {
	if _, err := ParseCapability(string(c)); err != nil {
		return nil, err
	}
	// Resolve first so a bad path never yields a partially rebuilt forest.
	if _, err := f.NodeAt(path); err != nil {
		return nil, err
	}
	nodes, err := rebuild(f, path, fn)
	if err != nil {
		return nil, err
	}
	return Forest(nodes), nil
}

func rebuild(nodes []MenuNode, path Path, fn func(MenuNode) MenuNode) ([]MenuNode, error) {
	idx := path[0]
	if idx < 0 || idx >= len(nodes) {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidPath, idx)
	}
	out := make([]MenuNode, len(nodes))
	copy(out, nodes)
	if len(path) == 1 {
		out[idx] = fn(out[idx])
		return out, nil
	}
	children, err := rebuild(out[idx].Children, path[1:], fn)
	if err != nil {
		return nil, err
	}
	out[idx].Children = children
	return out, nil
}
