// Package rewriter replaces in-document asset references with the URLs of
// their uploaded copies. It operates on the raw decoded JSON so that no field
// outside its concern is disturbed, and it never needs the classifier's
// in-memory state: SVG lookups are re-derived from node ids alone, which is
// exactly the determinism the filename scheme guarantees.
package rewriter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hellenic-development/figma-asset-publisher/pkg/extractor"
	"github.com/hellenic-development/figma-asset-publisher/pkg/spaces"
)

// Mapping is one uploaded file, addressable by its filename stem: the
// imageRef for bitmap fills, the sanitized node id for SVG exports.
type Mapping struct {
	Filename string
	URL      string
	CDNURL   string
	SizeMB   float64
	IsSVG    bool
}

// Report summarizes one rewriting run.
type Report struct {
	TotalMappings      int    `json:"total_mappings"`
	BitmapReplacements int    `json:"bitmap_replacements"`
	SVGReplacements    int    `json:"svg_replacements"`
	ReplacedAt         string `json:"replaced_at"`
	UsedCDN            bool   `json:"used_cdn"`
}

// Rewriter holds the stem -> URL mapping for one run.
type Rewriter struct {
	mapping map[string]Mapping

	bitmapReplacements int
	svgReplacements    int
	usedCDN            bool
}

// New returns an empty Rewriter; load a mapping before rewriting.
func New() *Rewriter {
	return &Rewriter{mapping: make(map[string]Mapping)}
}

// urlsDocument mirrors the urls.json shape the uploader exports.
type urlsDocument struct {
	Files []spaces.FileInfo `json:"files"`
}

// LoadURLMapping loads the uploaded-file index from a urls.json file.
func (r *Rewriter) LoadURLMapping(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read url mapping %q: %w", path, err)
	}

	var doc urlsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse url mapping %q: %w", path, err)
	}

	r.LoadFromFiles(doc.Files)
	return nil
}

// LoadFromFiles indexes uploaded files by filename stem.
func (r *Rewriter) LoadFromFiles(files []spaces.FileInfo) {
	for _, f := range files {
		stem := f.Filename
		if idx := strings.LastIndex(stem, "."); idx > 0 {
			stem = stem[:idx]
		}
		r.mapping[stem] = Mapping{
			Filename: f.Filename,
			URL:      f.URL,
			CDNURL:   f.CDNURL,
			SizeMB:   f.SizeMB,
			IsSVG:    strings.HasSuffix(strings.ToLower(f.Filename), ".svg"),
		}
	}
}

// MappingCount returns the number of loaded URL mappings.
func (r *Rewriter) MappingCount() int {
	return len(r.mapping)
}

// ReplaceImageReferences returns a deep copy of the document with every
// resolvable asset reference replaced: IMAGE paints get their imageRef
// swapped for the uploaded URL, and the _svgDownloads/_svgMapping sections
// gain spaces_url/cdn_url fields. The input document is never modified.
func (r *Rewriter) ReplaceImageReferences(doc map[string]any, useCDN bool) (map[string]any, error) {
	r.bitmapReplacements = 0
	r.svgReplacements = 0
	r.usedCDN = useCDN

	copied, err := deepCopy(doc)
	if err != nil {
		return nil, err
	}

	r.replaceRecursive(copied, useCDN)

	if downloads, ok := copied["_svgDownloads"].(map[string]any); ok {
		r.updateSVGDownloads(downloads, useCDN)
	}
	if mapping, ok := copied["_svgMapping"].(map[string]any); ok {
		r.updateSVGMapping(mapping, useCDN)
	}

	copied["_urlReplacement"] = r.Result()
	return copied, nil
}

// Result returns the report for the latest rewriting run.
func (r *Rewriter) Result() Report {
	return Report{
		TotalMappings:      len(r.mapping),
		BitmapReplacements: r.bitmapReplacements,
		SVGReplacements:    r.svgReplacements,
		ReplacedAt:         time.Now().Format(time.RFC3339),
		UsedCDN:            r.usedCDN,
	}
}

func (r *Rewriter) replaceRecursive(value any, useCDN bool) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range []string{"fills", "backgrounds", "background"} {
			if paints, ok := v[key].([]any); ok {
				r.replaceInPaints(paints, useCDN)
			}
		}
		for key, child := range v {
			// Underscore sections are handled explicitly, not as tree content.
			if strings.HasPrefix(key, "_") {
				continue
			}
			r.replaceRecursive(child, useCDN)
		}
	case []any:
		for _, item := range v {
			r.replaceRecursive(item, useCDN)
		}
	}
}

func (r *Rewriter) replaceInPaints(paints []any, useCDN bool) {
	for _, item := range paints {
		paint, ok := item.(map[string]any)
		if !ok || paint["type"] != "IMAGE" {
			continue
		}
		ref, ok := paint["imageRef"].(string)
		if !ok || ref == "" {
			continue
		}
		m, ok := r.mapping[ref]
		if !ok {
			continue
		}

		paint["originalImageRef"] = ref
		paint["imageRef"] = r.pick(m, useCDN)
		r.bitmapReplacements++
	}
}

func (r *Rewriter) updateSVGDownloads(downloads map[string]any, useCDN bool) {
	for nodeID, item := range downloads {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m, ok := r.mapping[extractor.SanitizeID(nodeID)]
		if !ok {
			continue
		}
		entry["spaces_url"] = m.URL
		entry["cdn_url"] = m.CDNURL
		entry["url"] = r.pick(m, useCDN)
		r.svgReplacements++
	}
}

func (r *Rewriter) updateSVGMapping(mapping map[string]any, useCDN bool) {
	for sanitizedID, item := range mapping {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m, ok := r.mapping[sanitizedID]
		if !ok {
			continue
		}
		entry["url"] = r.pick(m, useCDN)
	}
}

func (r *Rewriter) pick(m Mapping, useCDN bool) string {
	if useCDN && m.CDNURL != "" {
		return m.CDNURL
	}
	return m.URL
}

// deepCopy clones arbitrary decoded JSON through a marshal round-trip.
func deepCopy(doc map[string]any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}
	var copied map[string]any
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}
	return copied, nil
}
