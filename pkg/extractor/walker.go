package extractor

import (
	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
)

// VisitFunc is invoked once for every node reached by a Walker, depth-first
// and pre-order. path is the slash-joined ancestry name path including the
// visited node's own name. ctx is an arbitrary caller value threaded down the
// tree; the returned childCtx replaces it for the node's children, which is
// how callers propagate "nearest enclosing container" context without any
// shared mutable state. Returning descend == false stops the walk below this
// node without affecting its siblings.
type VisitFunc func(n *figma.Node, path string, ctx any) (childCtx any, descend bool)

// Walker performs a depth-first pre-order traversal over a Figma node tree.
// It never mutates the tree and produces no side effects of its own; it is
// purely a control-flow primitive shared by classification, decomposition,
// and reference extraction.
type Walker struct {
	// MaxDepth caps recursion depth; 0 means unbounded. The root sits at
	// depth 0, so MaxDepth = 1 visits the root and its direct children.
	// When the cap is reached the walk silently stops descending rather
	// than failing; OnDepthCap makes the incompleteness observable.
	MaxDepth int

	// IncludeRootInPath controls whether the root node's name starts the
	// ancestry path. Excluding it keeps DOCUMENT/CANVAS wrappers out of
	// diagnostic paths.
	IncludeRootInPath bool

	// OnDepthCap, if non-nil, is called once per node whose children were
	// skipped because of MaxDepth.
	OnDepthCap func(n *figma.Node)
}

// Walk traverses the tree rooted at root, invoking visit for every reachable
// node. ctx seeds the context value passed to the root's visit.
func (w Walker) Walk(root *figma.Node, ctx any, visit VisitFunc) {
	if root == nil {
		return
	}

	path := ""
	if w.IncludeRootInPath {
		path = root.Name
	}
	w.walk(root, path, ctx, 0, visit)
}

func (w Walker) walk(n *figma.Node, path string, ctx any, depth int, visit VisitFunc) {
	childCtx, descend := visit(n, path, ctx)
	if !descend || len(n.Children) == 0 {
		return
	}

	if w.MaxDepth > 0 && depth >= w.MaxDepth {
		if w.OnDepthCap != nil {
			w.OnDepthCap(n)
		}
		return
	}

	for i := range n.Children {
		child := &n.Children[i]
		w.walk(child, joinPath(path, child.Name), childCtx, depth+1, visit)
	}
}

// joinPath appends a node name to a slash-joined ancestry path.
func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}
