// Package manifest embeds the classification output into the raw document
// JSON under the _svgDownloads, _svgMapping, and _metadata sections. Other
// stages pattern-match on these key shapes, so they are preserved exactly:
// _svgDownloads is keyed by native node id, _svgMapping by sanitized id.
package manifest

import (
	"time"

	"github.com/hellenic-development/figma-asset-publisher/pkg/extractor"
	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
)

// preprocessingVersion tags documents produced by this classification
// approach so downstream consumers can detect it.
const preprocessingVersion = "3.0_child_based_extraction"

// SVGDownload is one entry of the _svgDownloads section: everything a
// download or upload stage needs to fetch and file one vector export.
type SVGDownload struct {
	NodeID           string           `json:"node_id"`
	Type             string           `json:"type"`
	IsGroup          bool             `json:"is_group"`
	ComponentName    string           `json:"component_name"`
	Path             string           `json:"path"`
	Filename         string           `json:"filename"`
	ExtractionReason string           `json:"extraction_reason"`
	ParentGroupID    string           `json:"parent_group_id,omitempty"`
	ParentGroupName  string           `json:"parent_group_name,omitempty"`
	Bounds           *figma.Rectangle `json:"bounds,omitempty"`
}

// SVGMapping is one entry of the _svgMapping section, keyed by sanitized node
// id. The URL-rewriting stage looks files up through this table.
type SVGMapping struct {
	Filename      string `json:"filename"`
	IsGroup       bool   `json:"is_group"`
	ComponentName string `json:"component_name"`
}

// Downloads builds the _svgDownloads section from a classification result.
func Downloads(res *extractor.Result) map[string]SVGDownload {
	downloads := make(map[string]SVGDownload, len(res.Records))
	for id, rec := range res.Records {
		downloads[id] = SVGDownload{
			NodeID:           rec.NodeID,
			Type:             rec.Type,
			IsGroup:          false, // every export is an individual vector
			ComponentName:    rec.Name,
			Path:             rec.Path,
			Filename:         rec.Filename,
			ExtractionReason: string(rec.Reason),
			ParentGroupID:    rec.ParentGroupID,
			ParentGroupName:  rec.ParentGroupName,
			Bounds:           rec.Bounds,
		}
	}
	return downloads
}

// Mapping builds the _svgMapping section from a classification result. Keys
// are sanitized ids so the table can be joined against filenames directly.
func Mapping(res *extractor.Result) map[string]SVGMapping {
	mapping := make(map[string]SVGMapping, len(res.Records))
	for id, rec := range res.Records {
		mapping[extractor.SanitizeID(id)] = SVGMapping{
			Filename:      rec.Filename,
			IsGroup:       false,
			ComponentName: rec.Name,
		}
	}
	return mapping
}

// Embed writes the _svgDownloads, _svgMapping, and preprocessing metadata
// sections into the raw decoded document. The document's own tree is left
// untouched; only the underscore-prefixed sections are added or replaced.
func Embed(doc map[string]any, res *extractor.Result, fileKey string) {
	doc["_svgDownloads"] = Downloads(res)
	doc["_svgMapping"] = Mapping(res)

	meta, ok := doc["_metadata"].(map[string]any)
	if !ok {
		meta = make(map[string]any)
		doc["_metadata"] = meta
	}

	meta["preprocessing_applied"] = true
	meta["preprocessing"] = map[string]any{
		"processed_at":          time.Now().Format(time.RFC3339),
		"preprocessing_version": preprocessingVersion,
		"approach":              "child_based_individual_extraction",
		"figma_file_key":        fileKey,
		"statistics":            res.Stats,
		"filtering_criteria": map[string]any{
			"vector_types_included": []string{"VECTOR"},
			"content_excluded":      []string{"TEXT", "SHAPES", "MASKS"},
			"fill_types_required":   []string{"SOLID"},
			"extraction_strategy":   "individual_vector_children",
		},
	}
}
