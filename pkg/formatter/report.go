// Package formatter renders the extraction outcome as a markdown report.
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hellenic-development/figma-asset-publisher/pkg/extractor"
)

// ExtractionReport transforms a classification result into a markdown
// document summarizing what was found, what was excluded, and the exact
// files the upload and rewriting stages will work with.
func ExtractionReport(res *extractor.Result, fileName string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Figma Asset Extraction Report - %s\n\n", fileName))

	stats := res.Stats
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Nodes scanned: %d\n", stats.NodesScanned))
	sb.WriteString(fmt.Sprintf("- Groups analyzed: %d (%d vector-bearing, %d empty)\n",
		stats.GroupsAnalyzed, stats.VectorBearingGroups, stats.EmptyGroupsSkipped))
	sb.WriteString(fmt.Sprintf("- Vector children from groups: %d\n", stats.VectorChildrenFound))
	sb.WriteString(fmt.Sprintf("- Standalone vectors: %d\n", stats.StandaloneVectors))
	sb.WriteString(fmt.Sprintf("- Total SVG exports: %d\n", stats.TotalVectorExports))
	sb.WriteString(fmt.Sprintf("- Excluded: %d TEXT, %d shape/mask elements\n",
		stats.TextNodesFiltered, stats.ImageShapesFiltered))
	if stats.DepthCapHits > 0 {
		sb.WriteString(fmt.Sprintf("- Depth cap reached %d time(s); deeper content was skipped\n", stats.DepthCapHits))
	}
	sb.WriteString("\n")

	if len(stats.ExcludedByType) > 0 {
		sb.WriteString("## Other exclusions by type\n\n")
		types := make([]string, 0, len(stats.ExcludedByType))
		for t := range stats.ExcludedByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", t, stats.ExcludedByType[t]))
		}
		sb.WriteString("\n")
	}

	groupChildren, standalone := partition(res)

	if len(groupChildren) > 0 {
		sb.WriteString("## Vector children from groups\n\n")
		sb.WriteString("| Node ID | Name | Filename | Parent Group |\n")
		sb.WriteString("|---------|------|----------|-------------|\n")
		for _, rec := range groupChildren {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s (%s) |\n",
				rec.NodeID, rec.Name, rec.Filename, rec.ParentGroupName, rec.ParentGroupID))
		}
		sb.WriteString("\n")
	}

	if len(standalone) > 0 {
		sb.WriteString("## Standalone vectors\n\n")
		sb.WriteString("| Node ID | Name | Filename |\n")
		sb.WriteString("|---------|------|----------|\n")
		for _, rec := range standalone {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", rec.NodeID, rec.Name, rec.Filename))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// partition splits records by extraction reason, in discovery order.
func partition(res *extractor.Result) (groupChildren, standalone []extractor.ExportRecord) {
	for _, id := range res.Order {
		rec := res.Records[id]
		if rec.Reason == extractor.ReasonVectorChildFromGroup {
			groupChildren = append(groupChildren, rec)
		} else {
			standalone = append(standalone, rec)
		}
	}
	return groupChildren, standalone
}
