/*
Package projector – node assembly.

A node is assembled from its children in declaration order. Absent children
are skipped, and a node whose children are all absent is itself absent.
*/
package projector

// Node is one assembled level of a request. Present nested nodes are stored
// as Node values; absent ones have no key at all.
type Node map[string]any

// Part is a child of a node under assembly: a Slot or a Branch.
type Part interface {
	part() (name string, value any, present bool)
}

// Branch is the outcome of assembling a nested node.
type Branch struct {
	name    string
	node    Node
	present bool
}

// NewBranch wraps the result of Assemble so it can be fed to a parent.
func NewBranch(name string, node Node, present bool) Branch {
	if !present {
		return Branch{name: name}
	}
	return Branch{name: name, node: node, present: true}
}

func (b Branch) Name() string  { return b.name }
func (b Branch) Node() Node    { return b.node }
func (b Branch) Present() bool { return b.present }

func (b Branch) part() (string, any, bool) { return b.name, b.node, b.present }

// Assemble builds one node from parts, in order. It reports false (absent)
// when no part is present, which includes the case of no parts at all.
func Assemble(parts ...Part) (Node, bool) {
	acc := Node{}
	anyPresent := false
	for _, p := range parts {
		name, value, present := p.part()
		if !present {
			continue
		}
		acc[name] = value
		anyPresent = true
	}
	if !anyPresent {
		return nil, false
	}
	return acc, true
}
