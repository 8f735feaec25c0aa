// Package figmapublisher extracts vector and bitmap assets from Figma files
// via the Figma API and re-publishes them to DigitalOcean Spaces, producing
// a preprocessed document whose asset references point at the uploaded
// copies.
//
// The CLI lives in cmd/figma-publisher; this root package exposes the same
// pipeline as a Go API so that callers can embed publishing in their own
// tools without shelling out.
//
// # Import
//
// The module path contains hyphens but Go package names cannot, so the
// package is named figmapublisher:
//
//	import "github.com/hellenic-development/figma-asset-publisher" // package figmapublisher
//
// # Quick start
//
//	result, err := figmapublisher.Run(figmapublisher.Options{
//	    AccessToken: os.Getenv("FIGMA_API_TOKEN"),
//	    FileURL:     "https://www.figma.com/design/ABC123/My-Design",
//	    OutputDir:   "figma-output",
//	    SkipUpload:  true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("exported %d SVGs from %s\n", result.SVGsDownloaded, result.FileName)
//
// # Classification
//
// The core of the pipeline is the child-based vector classifier in
// pkg/extractor: every GROUP is decomposed into its individually exportable
// vector children, and vectors outside any group are collected as standalone
// exports. A vector qualifies when it is exactly of type VECTOR, carries at
// least one SOLID fill, and is not a mask. Each qualifying vector gets a
// deterministic filename derived from its node id alone.
//
// # Publishing
//
// When [Options.Spaces] is set and [Options.SkipUpload] is false, downloaded
// assets are uploaded with public-read ACLs and the document's imageRef
// values and SVG manifest entries are rewritten to the uploaded URLs
// (origin or CDN, per [Options.UseCDN]).
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output.
package figmapublisher
