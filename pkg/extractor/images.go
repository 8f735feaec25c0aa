package extractor

import (
	"sort"

	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
)

// ImageReferenceIndex is the outcome of the bitmap-fill reference scan.
type ImageReferenceIndex struct {
	// Refs is the distinct set of imageRef values found in any fills,
	// backgrounds, or legacy background paint list of type IMAGE. Each
	// reference appears once regardless of how many nodes use it.
	Refs map[string]struct{}

	// NodeIDs is the set of node ids carrying at least one image fill.
	// It feeds the render fallback used when the reference-to-URL mapping
	// is unavailable and images must be acquired by rendering the nearest
	// containing node instead.
	NodeIDs map[string]struct{}

	// RefByNode maps each such node id to the first imageRef it carries,
	// so rendered fallbacks can be filed under the reference they stand
	// in for.
	RefByNode map[string]string
}

// SortedRefs returns the reference set in lexicographic order for
// deterministic batching and logging.
func (idx *ImageReferenceIndex) SortedRefs() []string {
	refs := make([]string, 0, len(idx.Refs))
	for ref := range idx.Refs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// SortedNodeIDs returns the carrying-node set in lexicographic order.
func (idx *ImageReferenceIndex) SortedNodeIDs() []string {
	ids := make([]string, 0, len(idx.NodeIDs))
	for id := range idx.NodeIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindImageReferences walks the full tree and collects every distinct
// imageRef used by an IMAGE paint, together with the nodes that use them.
// The walk is unbounded; image fills can sit at any depth.
func FindImageReferences(root *figma.Node) *ImageReferenceIndex {
	idx := &ImageReferenceIndex{
		Refs:      make(map[string]struct{}),
		NodeIDs:   make(map[string]struct{}),
		RefByNode: make(map[string]string),
	}

	w := Walker{}
	w.Walk(root, nil, func(n *figma.Node, path string, ctx any) (any, bool) {
		collectImagePaints(idx, n, n.Fills)
		collectImagePaints(idx, n, n.Backgrounds)
		collectImagePaints(idx, n, n.Background)
		return ctx, true
	})

	return idx
}

func collectImagePaints(idx *ImageReferenceIndex, n *figma.Node, paints []figma.Paint) {
	for _, paint := range paints {
		if paint.Type != "IMAGE" || paint.ImageRef == "" {
			continue
		}
		idx.Refs[paint.ImageRef] = struct{}{}
		idx.NodeIDs[n.ID] = struct{}{}
		if _, ok := idx.RefByNode[n.ID]; !ok {
			idx.RefByNode[n.ID] = paint.ImageRef
		}
	}
}

// ImageNode describes a directly placed IMAGE node (as opposed to an image
// used as a fill).
type ImageNode struct {
	NodeID   string
	Name     string
	Path     string
	ImageRef string
	Bounds   *figma.Rectangle
}

// FindDirectImageNodes walks the full tree and returns every node of type
// IMAGE. These are acquired through the render endpoint since they have no
// export URL of their own.
func FindDirectImageNodes(root *figma.Node) []ImageNode {
	var nodes []ImageNode

	w := Walker{}
	w.Walk(root, nil, func(n *figma.Node, path string, ctx any) (any, bool) {
		if n.Type == "IMAGE" {
			nodes = append(nodes, ImageNode{
				NodeID:   n.ID,
				Name:     n.Name,
				Path:     path,
				ImageRef: n.ImageRef,
				Bounds:   n.AbsoluteBoundingBox,
			})
		}
		return ctx, true
	})

	return nodes
}
