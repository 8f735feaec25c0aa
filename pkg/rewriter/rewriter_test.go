package rewriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hellenic-development/figma-asset-publisher/pkg/spaces"
)

func loadedRewriter() *Rewriter {
	r := New()
	r.LoadFromFiles([]spaces.FileInfo{
		{
			Filename: "ref-a.png",
			URL:      "https://space.nyc3.digitaloceanspaces.com/figma-assets/KEY/images/ref-a.png",
			CDNURL:   "https://space.nyc3.cdn.digitaloceanspaces.com/figma-assets/KEY/images/ref-a.png",
		},
		{
			Filename: "10_1.svg",
			URL:      "https://space.nyc3.digitaloceanspaces.com/figma-assets/KEY/svg_icons/10_1.svg",
			CDNURL:   "https://space.nyc3.cdn.digitaloceanspaces.com/figma-assets/KEY/svg_icons/10_1.svg",
		},
	})
	return r
}

func sampleDoc() map[string]any {
	return map[string]any{
		"document": map[string]any{
			"id": "0:0",
			"children": []any{
				map[string]any{
					"id": "1:1",
					"fills": []any{
						map[string]any{"type": "IMAGE", "imageRef": "ref-a"},
						map[string]any{"type": "SOLID"},
					},
				},
				map[string]any{
					"id": "1:2",
					"fills": []any{
						map[string]any{"type": "IMAGE", "imageRef": "unknown-ref"},
					},
				},
			},
		},
		"_svgDownloads": map[string]any{
			"10:1": map[string]any{"filename": "10_1.svg"},
		},
		"_svgMapping": map[string]any{
			"10_1": map[string]any{"filename": "10_1.svg"},
		},
	}
}

func TestReplaceImageReferences(t *testing.T) {
	r := loadedRewriter()

	out, err := r.ReplaceImageReferences(sampleDoc(), false)
	if err != nil {
		t.Fatalf("ReplaceImageReferences() error = %v", err)
	}

	children := out["document"].(map[string]any)["children"].([]any)
	fill := children[0].(map[string]any)["fills"].([]any)[0].(map[string]any)

	if fill["originalImageRef"] != "ref-a" {
		t.Errorf("originalImageRef = %v", fill["originalImageRef"])
	}
	if fill["imageRef"] != "https://space.nyc3.digitaloceanspaces.com/figma-assets/KEY/images/ref-a.png" {
		t.Errorf("imageRef = %v", fill["imageRef"])
	}

	// Unknown references stay as they are.
	other := children[1].(map[string]any)["fills"].([]any)[0].(map[string]any)
	if other["imageRef"] != "unknown-ref" {
		t.Errorf("unmapped ref was modified: %v", other["imageRef"])
	}

	report := r.Result()
	if report.BitmapReplacements != 1 {
		t.Errorf("BitmapReplacements = %d, want 1", report.BitmapReplacements)
	}
	if report.SVGReplacements != 1 {
		t.Errorf("SVGReplacements = %d, want 1", report.SVGReplacements)
	}
	if report.TotalMappings != 2 {
		t.Errorf("TotalMappings = %d, want 2", report.TotalMappings)
	}
}

func TestReplaceImageReferencesUpdatesSVGSections(t *testing.T) {
	r := loadedRewriter()

	out, err := r.ReplaceImageReferences(sampleDoc(), false)
	if err != nil {
		t.Fatal(err)
	}

	dl := out["_svgDownloads"].(map[string]any)["10:1"].(map[string]any)
	if dl["spaces_url"] == nil || dl["cdn_url"] == nil || dl["url"] == nil {
		t.Errorf("svg download entry missing url fields: %v", dl)
	}

	mp := out["_svgMapping"].(map[string]any)["10_1"].(map[string]any)
	if mp["url"] == nil {
		t.Errorf("svg mapping entry missing url: %v", mp)
	}

	if _, ok := out["_urlReplacement"]; !ok {
		t.Error("_urlReplacement report missing")
	}
}

func TestReplaceImageReferencesCDN(t *testing.T) {
	r := loadedRewriter()

	out, err := r.ReplaceImageReferences(sampleDoc(), true)
	if err != nil {
		t.Fatal(err)
	}

	children := out["document"].(map[string]any)["children"].([]any)
	fill := children[0].(map[string]any)["fills"].([]any)[0].(map[string]any)
	if fill["imageRef"] != "https://space.nyc3.cdn.digitaloceanspaces.com/figma-assets/KEY/images/ref-a.png" {
		t.Errorf("imageRef = %v, want CDN URL", fill["imageRef"])
	}
	if !r.Result().UsedCDN {
		t.Error("report should record CDN usage")
	}
}

func TestReplaceImageReferencesDoesNotMutateInput(t *testing.T) {
	doc := sampleDoc()
	r := loadedRewriter()

	if _, err := r.ReplaceImageReferences(doc, false); err != nil {
		t.Fatal(err)
	}

	fill := doc["document"].(map[string]any)["children"].([]any)[0].(map[string]any)["fills"].([]any)[0].(map[string]any)
	if fill["imageRef"] != "ref-a" {
		t.Errorf("input document was mutated: %v", fill["imageRef"])
	}
}

func TestLoadURLMapping(t *testing.T) {
	doc := map[string]any{
		"files": []map[string]any{
			{
				"filename":    "ref-a.png",
				"remote_path": "figma-assets/KEY/images/ref-a.png",
				"url":         "https://example.com/ref-a.png",
				"cdn_url":     "https://cdn.example.com/ref-a.png",
				"size_mb":     0.5,
			},
		},
	}
	data, _ := json.Marshal(doc)
	path := filepath.Join(t.TempDir(), "urls.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.LoadURLMapping(path); err != nil {
		t.Fatalf("LoadURLMapping() error = %v", err)
	}
	if r.MappingCount() != 1 {
		t.Errorf("MappingCount() = %d, want 1", r.MappingCount())
	}
}

func TestLoadURLMappingMissingFile(t *testing.T) {
	r := New()
	if err := r.LoadURLMapping(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing mapping file")
	}
}
