package figmapublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hellenic-development/figma-asset-publisher/pkg/extractor"
	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
	"github.com/hellenic-development/figma-asset-publisher/pkg/formatter"
	"github.com/hellenic-development/figma-asset-publisher/pkg/imager"
	"github.com/hellenic-development/figma-asset-publisher/pkg/manifest"
	"github.com/hellenic-development/figma-asset-publisher/pkg/rewriter"
	"github.com/hellenic-development/figma-asset-publisher/pkg/spaces"
)

// Options configures one publishing run.
type Options struct {
	AccessToken string
	FileURL     string // Figma file URL
	OutputDir   string // default "figma-output"

	// Spaces enables the upload and URL-rewriting stages when non-nil.
	Spaces *spaces.Config

	// SkipUpload stops after extraction and download; useful for dry runs
	// and for inspecting classification output without touching the bucket.
	SkipUpload bool

	// UseCDN selects CDN edge URLs over origin URLs when rewriting.
	UseCDN bool

	Logger Logger // nil = no logging
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Result contains the publishing output.
type Result struct {
	FileName string // Figma file name
	FileKey  string

	Records map[string]extractor.ExportRecord
	Stats   extractor.Stats

	SVGsDownloaded   int
	ImagesDownloaded int
	FilesUploaded    int

	DocumentPath  string // preprocessed document JSON
	RewrittenPath string // URL-replaced document JSON, empty if upload skipped
	ReportPath    string // markdown report
	Report        string
}

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

func (o *Options) logError(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Errorf(f, a...)
	}
}

// Run executes the full publishing pipeline: fetch the document, classify
// its vectors and image references, download the assets, upload them to
// Spaces, and write the URL-rewritten document. Download and upload failures
// are per-asset and degrade to fewer published assets; only setup failures
// (bad URL, unreachable API, unwritable output) abort the run.
func Run(opts Options) (*Result, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = "figma-output"
	}

	opts.logInfo("Extracting file key from URL...")
	fileKey, err := figma.ExtractFileKey(opts.FileURL)
	if err != nil {
		return nil, fmt.Errorf("extract file key: %w", err)
	}
	opts.logInfo("File key: %s", fileKey)

	client := figma.NewClient(opts.AccessToken)

	email, err := client.ValidateToken()
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	opts.logInfo("Authenticated as %s", email)

	opts.logInfo("Fetching file data from Figma...")
	fileResp, err := client.GetFile(fileKey)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	opts.logInfo("File: %s", fileResp.Name)

	// Classification: pure, in-memory, no I/O.
	opts.logInfo("Classifying vectors and image references...")
	res := extractor.Classify(&fileResp.Document)
	opts.logInfo("Found %d vector children in %d groups, %d standalone vectors",
		res.Stats.VectorChildrenFound, res.Stats.GroupsAnalyzed, res.Stats.StandaloneVectors)
	if res.Stats.DepthCapHits > 0 {
		opts.logWarn("Group content scan hit the depth cap %d time(s); deeper content was skipped", res.Stats.DepthCapHits)
	}

	manifest.Embed(fileResp.Raw, res, fileKey)

	result := &Result{
		FileName: fileResp.Name,
		FileKey:  fileKey,
		Records:  res.Records,
		Stats:    res.Stats,
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result.DocumentPath = filepath.Join(opts.OutputDir, "figma_document.json")
	if err := writeJSON(result.DocumentPath, fileResp.Raw); err != nil {
		return nil, err
	}
	opts.logInfo("Preprocessed document saved to %s", result.DocumentPath)

	assetsDir := filepath.Join(opts.OutputDir, "assets")

	// Individual SVG exports.
	if len(res.Records) > 0 {
		opts.logInfo("Exporting %d individual SVGs...", len(res.Records))
		svgResult, err := imager.ExportSVGs(client, fileKey, res.Filenames(), filepath.Join(assetsDir, "svg_icons"))
		if err != nil {
			return nil, fmt.Errorf("export SVGs: %w", err)
		}
		for _, dlErr := range svgResult.Errors {
			opts.logWarn("%v", dlErr)
		}
		result.SVGsDownloaded = len(svgResult.Assets)
		opts.logInfo("Downloaded %d/%d SVGs", result.SVGsDownloaded, len(res.Records))
	} else {
		opts.logInfo("No exportable vectors found")
	}

	// Bitmap fills, preferred path first, render fallback second.
	result.ImagesDownloaded = downloadImages(&opts, client, fileKey, &fileResp.Document, assetsDir)

	// Upload and rewrite.
	if opts.SkipUpload || opts.Spaces == nil {
		opts.logInfo("Upload skipped")
	} else if err := publish(&opts, result, fileResp.Raw, assetsDir); err != nil {
		return nil, err
	}

	result.Report = formatter.ExtractionReport(res, fileResp.Name)
	result.ReportPath = filepath.Join(opts.OutputDir, "extraction_report.md")
	if err := os.WriteFile(result.ReportPath, []byte(result.Report), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return result, nil
}

// downloadImages acquires bitmap fills and directly placed images. The
// original-file URLs are preferred; anything unresolved is rendered via the
// image-export endpoint and filed under the reference it stands in for.
func downloadImages(opts *Options, client *figma.Client, fileKey string, doc *figma.Node, assetsDir string) int {
	imagesDir := filepath.Join(assetsDir, "images")
	downloaded := 0

	idx := extractor.FindImageReferences(doc)
	refs := idx.SortedRefs()
	if len(refs) > 0 {
		opts.logInfo("Found %d distinct image fill reference(s)", len(refs))

		unresolved := refs
		urls, err := client.GetFileImages(fileKey)
		if err != nil {
			opts.logWarn("File images API failed, falling back to rendering: %v", err)
		} else {
			fillResult, stillUnresolved, err := imager.DownloadImageFills(urls, refs, imagesDir)
			if err != nil {
				opts.logError("Downloading image fills failed: %v", err)
			} else {
				for _, dlErr := range fillResult.Errors {
					opts.logWarn("%v", dlErr)
				}
				downloaded += len(fillResult.Assets)
			}
			unresolved = stillUnresolved
		}

		if len(unresolved) > 0 {
			// Render the nearest containing node for each unresolved ref.
			opts.logInfo("Rendering %d unresolved image(s) via the export API...", len(unresolved))
			pending := make(map[string]bool, len(unresolved))
			for _, ref := range unresolved {
				pending[ref] = true
			}
			renderNames := make(map[string]string)
			for nodeID, ref := range idx.RefByNode {
				if pending[ref] {
					renderNames[nodeID] = ref
					delete(pending, ref)
				}
			}

			renderResult, err := imager.RenderNodes(client, fileKey, renderNames, imagesDir)
			if err != nil {
				opts.logError("Rendering images failed: %v", err)
			} else {
				for _, dlErr := range renderResult.Errors {
					opts.logWarn("%v", dlErr)
				}
				downloaded += len(renderResult.Assets)
			}
		}
	}

	// Directly placed IMAGE nodes have no fill reference of their own.
	if directs := extractor.FindDirectImageNodes(doc); len(directs) > 0 {
		opts.logInfo("Rendering %d directly placed image node(s)...", len(directs))
		renderNames := make(map[string]string, len(directs))
		for _, img := range directs {
			renderNames[img.NodeID] = extractor.SanitizeID(img.NodeID)
		}

		renderResult, err := imager.RenderNodes(client, fileKey, renderNames, imagesDir)
		if err != nil {
			opts.logError("Rendering direct images failed: %v", err)
		} else {
			for _, dlErr := range renderResult.Errors {
				opts.logWarn("%v", dlErr)
			}
			downloaded += len(renderResult.Assets)
		}
	}

	return downloaded
}

// publish uploads the downloaded assets and writes the URL-rewritten
// document next to the preprocessed one.
func publish(opts *Options, result *Result, rawDoc map[string]any, assetsDir string) error {
	uploader, err := spaces.New(*opts.Spaces)
	if err != nil {
		return err
	}

	ctx := context.Background()
	opts.logInfo("Testing Spaces connection...")
	if err := uploader.TestConnection(ctx); err != nil {
		return err
	}

	opts.logInfo("Uploading assets to %s...", opts.Spaces.SpaceName)
	files, uploadErrs := uploader.UploadDirectory(ctx, assetsDir, "figma-assets/"+result.FileKey)
	for _, upErr := range uploadErrs {
		opts.logWarn("%v", upErr)
	}
	result.FilesUploaded = len(files)
	opts.logInfo("Uploaded %d file(s)", len(files))

	urlsPath := filepath.Join(opts.OutputDir, "urls.json")
	if err := uploader.ExportURLsJSON(files, urlsPath); err != nil {
		return err
	}

	rw := rewriter.New()
	rw.LoadFromFiles(files)

	opts.logInfo("Rewriting in-document references...")
	rewritten, err := rw.ReplaceImageReferences(rawDoc, opts.UseCDN)
	if err != nil {
		return fmt.Errorf("rewrite references: %w", err)
	}
	report := rw.Result()
	opts.logInfo("Replaced %d bitmap reference(s) and %d SVG entrie(s)",
		report.BitmapReplacements, report.SVGReplacements)

	result.RewrittenPath = filepath.Join(opts.OutputDir, "figma_document_replaced.json")
	return writeJSON(result.RewrittenPath, rewritten)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
