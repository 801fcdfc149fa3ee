package view

import (
	"sort"
	"sync"
)

type treeNode struct {
	view   View
	parent string
}

// Tree is the arena of live views of one application. It records parent
// links as ids so that children never hold their parent.
type Tree struct {
	nodes map[string]*treeNode
	mutex sync.RWMutex
}

func NewTree() *Tree {
	return &Tree{nodes: make(map[string]*treeNode)}
}

// Attach records v with the given parent, which may be nil.
func (t *Tree) Attach(v View, parent View) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	node := &treeNode{view: v}
	if parent != nil {
		node.parent = parent.ID()
	}
	t.nodes[v.ID()] = node
}

// Detach forgets v. Its children keep their parent id and report no parent
// until they are detached themselves.
func (t *Tree) Detach(v View) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.nodes, v.ID())
}

func (t *Tree) Lookup(id string) (View, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return node.view, true
}

// Parent returns the live parent of v.
func (t *Tree) Parent(v View) View {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	node, ok := t.nodes[v.ID()]
	if !ok || node.parent == "" {
		return nil
	}
	parent, ok := t.nodes[node.parent]
	if !ok {
		return nil
	}
	return parent.view
}

// Children returns the live views whose parent is v, ordered by id.
func (t *Tree) Children(v View) []View {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	id := v.ID()
	children := make([]View, 0)
	for _, node := range t.nodes {
		if node.parent == id {
			children = append(children, node.view)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID() < children[j].ID() })
	return children
}

// Len returns the number of live views.
func (t *Tree) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.nodes)
}
