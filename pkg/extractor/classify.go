package extractor

import (
	"sort"

	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
)

// Reason tags why a node was selected for SVG export.
type Reason string

const (
	// ReasonVectorChildFromGroup marks a vector claimed by the GROUP
	// decomposition pass.
	ReasonVectorChildFromGroup Reason = "VECTOR_CHILD_FROM_GROUP"
	// ReasonStandaloneVector marks a vector that no group claimed.
	ReasonStandaloneVector Reason = "STANDALONE_VECTOR"
)

// Exclusion reason tags used in statistics. Anything not covered below is
// tagged with the node's own type.
const (
	ExcludedText  = "TEXT"
	ExcludedShape = "SHAPE"
	ExcludedMask  = "MASK"
)

// groupScanDepth bounds the content scan inside a single group. Pathological
// or extremely deep groups stop contributing below this depth instead of
// failing the run; Stats.DepthCapHits records every such cut.
const groupScanDepth = 10

// ExportRecord is the unit of output the classification core produces per
// qualifying vector. Records are created once, never mutated afterwards, and
// keyed by NodeID in the Result; a node is either a group child or a
// standalone vector, never both.
type ExportRecord struct {
	NodeID          string
	Name            string
	Type            string
	Path            string // slash-joined ancestry path, diagnostics only
	Filename        string // derived from NodeID alone, see DeriveFilename
	Reason          Reason
	ParentGroupID   string // set only for ReasonVectorChildFromGroup
	ParentGroupName string
	Bounds          *figma.Rectangle
}

// Stats is the counter aggregate for one classification run. It is owned by
// the run that produced it and is read-only once Classify returns; concurrent
// runs each get a private instance. JSON tags match the persisted
// preprocessing metadata consumed by downstream stages.
type Stats struct {
	NodesScanned        int `json:"total_nodes_scanned"`
	GroupsAnalyzed      int `json:"groups_analyzed"`
	VectorChildrenFound int `json:"vector_children_found"`
	StandaloneVectors   int `json:"individual_vectors_found"`
	TextNodesFiltered   int `json:"text_nodes_filtered"`
	ImageShapesFiltered int `json:"image_shapes_filtered"`
	EmptyGroupsSkipped  int `json:"empty_groups_skipped"`
	TotalVectorExports  int `json:"total_vector_exports"`
	VectorBearingGroups int `json:"vector_bearing_groups"`
	DepthCapHits        int `json:"depth_cap_hits"`

	// ExcludedByType counts group-content exclusions that fall outside the
	// TEXT/SHAPE/MASK buckets, keyed by node type.
	ExcludedByType map[string]int `json:"excluded_by_type,omitempty"`
}

// Result is the aggregate output of one classification run.
type Result struct {
	// Records maps node ID to its export record. Membership is exclusive:
	// the union of group-child and standalone IDs contains no duplicates.
	Records map[string]ExportRecord

	// Order lists record IDs in discovery order (group children first,
	// then standalone vectors) so batching is deterministic for a given
	// input tree.
	Order []string

	Stats Stats
}

// Filenames returns the node-id to filename table consumed verbatim by the
// export and URL-rewriting stages.
func (r *Result) Filenames() map[string]string {
	filenames := make(map[string]string, len(r.Records))
	for id, rec := range r.Records {
		filenames[id] = rec.Filename
	}
	return filenames
}

// SortedIDs returns all record IDs sorted lexicographically.
func (r *Result) SortedIDs() []string {
	ids := make([]string, 0, len(r.Records))
	for id := range r.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsQualifyingVector is the strict per-node predicate deciding individual SVG
// export: the node must be exactly of type VECTOR, carry at least one SOLID
// fill, and not act as a mask. This is deliberately narrower than
// IsVectorBearing; do not unify the two.
func IsQualifyingVector(n *figma.Node) bool {
	if n.Type != "VECTOR" {
		return false
	}
	if !hasSolidFill(n) {
		return false
	}
	if n.IsMask {
		return false
	}
	return true
}

// IsVectorBearing is the broad discovery predicate: it over-approximates
// "this node is vector-like content worth inspecting" and is used only to
// characterize group contents, never to select nodes for individual export.
// Only IsQualifyingVector grants export.
func IsVectorBearing(n *figma.Node) bool {
	switch n.Type {
	case "VECTOR", "BOOLEAN_OPERATION", "STAR", "POLYGON":
		return true
	}
	return false
}

// hasSolidFill reports whether the node has at least one SOLID fill entry.
// A missing fills list is equivalent to an empty one.
func hasSolidFill(n *figma.Node) bool {
	for _, fill := range n.Fills {
		if fill.Type == "SOLID" {
			return true
		}
	}
	return false
}

// decomposition is the outcome of scanning one group's content.
type decomposition struct {
	children      []ExportRecord
	excludedKinds map[string]struct{}
	vectorBearing bool
}

// run holds the working state of a single classification pass. Each Classify
// call owns a private instance, so runs are independent and re-runnable.
type run struct {
	stats    Stats
	records  map[string]ExportRecord
	order    []string
	consumed map[string]struct{} // ids claimed as group children in pass 1
}

// Classify walks the document tree and produces one export record for every
// qualifying vector, either attributed to its nearest enclosing GROUP or
// collected as a standalone vector. The input tree is never mutated.
//
// The algorithm is two-pass by design: pass 1 decomposes every group and
// builds the complete consumed-id set; pass 2 collects standalone vectors,
// skipping consumed ids and group subtrees entirely. Document order therefore
// cannot double-record a vector as both a group child and a standalone one.
func Classify(root *figma.Node) *Result {
	r := &run{
		records:  make(map[string]ExportRecord),
		consumed: make(map[string]struct{}),
	}
	r.stats.ExcludedByType = make(map[string]int)

	r.decomposeGroups(root)
	r.collectStandalone(root)

	r.stats.TotalVectorExports = r.stats.VectorChildrenFound + r.stats.StandaloneVectors

	return &Result{
		Records: r.records,
		Order:   r.order,
		Stats:   r.stats,
	}
}

// decomposeGroups is pass 1: a full-tree walk that decomposes every GROUP at
// its first (and only) encounter. The walk continues below each group so that
// nested groups are decomposed as their own units, but the content scan of an
// individual group never crosses a nested group boundary, which is what makes
// the nearest enclosing group the recorded parent.
func (r *run) decomposeGroups(root *figma.Node) {
	w := Walker{}
	w.Walk(root, nil, func(n *figma.Node, path string, ctx any) (any, bool) {
		r.stats.NodesScanned++

		if n.Type != "GROUP" {
			return ctx, true
		}

		r.stats.GroupsAnalyzed++
		d := r.decompose(n, path)

		if d.vectorBearing {
			r.stats.VectorBearingGroups++
		}

		if len(d.children) == 0 {
			r.stats.EmptyGroupsSkipped++
		}
		for _, rec := range d.children {
			r.add(rec)
			r.consumed[rec.NodeID] = struct{}{}
		}

		// Descend regardless: nested groups are decomposed separately.
		return n, true
	})
}

// decompose scans a single group's subtree for qualifying vectors, bounded by
// groupScanDepth. The scan descends through non-group wrapper nodes (frames,
// instances, boolean wrappers) to reach vectors nested several levels deep,
// but stops at nested GROUP boundaries: their content belongs to them.
func (r *run) decompose(group *figma.Node, groupPath string) decomposition {
	d := decomposition{excludedKinds: make(map[string]struct{})}

	w := Walker{
		MaxDepth:          groupScanDepth,
		IncludeRootInPath: true,
		OnDepthCap: func(*figma.Node) {
			r.stats.DepthCapHits++
		},
	}

	for i := range group.Children {
		w.Walk(&group.Children[i], nil, func(n *figma.Node, path string, ctx any) (any, bool) {
			if n.Type == "GROUP" {
				// Deferred to its own decomposition unit.
				d.excludedKinds["GROUP"] = struct{}{}
				return ctx, false
			}

			if IsVectorBearing(n) {
				d.vectorBearing = true
			}

			switch {
			case IsQualifyingVector(n):
				d.children = append(d.children, ExportRecord{
					NodeID:          n.ID,
					Name:            n.Name,
					Type:            n.Type,
					Path:            joinPath(groupPath, path),
					Filename:        DeriveFilename(n.ID),
					Reason:          ReasonVectorChildFromGroup,
					ParentGroupID:   group.ID,
					ParentGroupName: group.Name,
					Bounds:          n.AbsoluteBoundingBox,
				})

			case n.Type == "TEXT":
				r.stats.TextNodesFiltered++
				d.excludedKinds[ExcludedText] = struct{}{}

			// The mask flag takes precedence over the SHAPE bucket when
			// both apply.
			case n.IsMask:
				r.stats.ImageShapesFiltered++
				d.excludedKinds[ExcludedMask] = struct{}{}

			case n.Type == "RECTANGLE" || n.Type == "ELLIPSE":
				r.stats.ImageShapesFiltered++
				d.excludedKinds[ExcludedShape] = struct{}{}

			default:
				r.stats.ExcludedByType[n.Type]++
				d.excludedKinds[n.Type] = struct{}{}
			}

			return ctx, true
		})
	}

	r.stats.VectorChildrenFound += len(d.children)
	return d
}

// collectStandalone is pass 2: it runs only after every group has been
// decomposed, so the consumed-id set is complete. Group subtrees are skipped
// entirely (pass 1 owns them); any remaining node passing the strict
// predicate becomes a standalone record.
func (r *run) collectStandalone(root *figma.Node) {
	w := Walker{}
	w.Walk(root, nil, func(n *figma.Node, path string, ctx any) (any, bool) {
		if n.Type == "GROUP" {
			return n, false
		}

		if IsQualifyingVector(n) {
			if _, claimed := r.consumed[n.ID]; !claimed {
				r.add(ExportRecord{
					NodeID:   n.ID,
					Name:     n.Name,
					Type:     n.Type,
					Path:     path,
					Filename: DeriveFilename(n.ID),
					Reason:   ReasonStandaloneVector,
					Bounds:   n.AbsoluteBoundingBox,
				})
				r.stats.StandaloneVectors++
			}
		}

		return ctx, true
	})
}

// add records an export record, keeping the first occurrence if the same id
// somehow surfaces twice. Record identity is decided by the consumed-id set,
// not by traversal timing.
func (r *run) add(rec ExportRecord) {
	if _, exists := r.records[rec.NodeID]; exists {
		return
	}
	r.records[rec.NodeID] = rec
	r.order = append(r.order, rec.NodeID)
}
