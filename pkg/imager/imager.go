// Package imager acquires the assets the classifier selected: individual SVG
// exports resolved through the image-export endpoint in bounded batches,
// original bitmap fills by imageRef, and render-API fallbacks for anything
// unresolved. Downloads run concurrently behind a small semaphore; individual
// failures are collected, never fatal.
package imager

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
)

// exportBatchSize caps node ids per image-export call. The endpoint has a
// practical per-call ceiling well below its documented limit on large files.
const exportBatchSize = 10

// interBatchDelay spaces consecutive export calls beyond the client's own
// request pacing.
const interBatchDelay = time.Second

const maxParallelDownloads = 5

// Asset represents one downloaded file.
type Asset struct {
	NodeID   string // empty for fill images keyed by reference
	ImageRef string // empty for SVG exports
	Name     string
	FileName string
	Path     string // local path
	Size     int64
}

// Result holds the outcome of one acquisition flow. Errors are per-asset and
// non-fatal; an empty Assets slice with errors means the flow degraded to
// zero assets rather than failing the pipeline.
type Result struct {
	Assets []Asset
	Errors []error
}

// ExportSVGs resolves export URLs for the given node-id -> filename table in
// batches and downloads each SVG to outputDir under its derived filename.
// The table comes straight from the classifier; filenames are never invented
// here, which keeps them consistent with the URL-rewriting stage.
func ExportSVGs(client *figma.Client, fileKey string, filenames map[string]string, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	result := &Result{}
	if len(filenames) == 0 {
		return result, nil
	}

	nodeIDs := make([]string, 0, len(filenames))
	for id := range filenames {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs) // deterministic batches

	for _, batch := range batchIDs(nodeIDs, exportBatchSize) {
		imgResp, err := client.GetImages(fileKey, batch, "svg", 1)
		if err != nil {
			// A failed batch costs its assets, not the run.
			result.Errors = append(result.Errors, fmt.Errorf("export batch failed: %w", err))
			continue
		}

		jobs := make(map[string]downloadJob, len(batch))
		for _, id := range batch {
			url := imgResp.Images[id]
			if url == "" {
				result.Errors = append(result.Errors, fmt.Errorf("no export URL returned for node %s", id))
				continue
			}
			jobs[id] = downloadJob{
				url:      url,
				fileName: filenames[id],
				asset:    Asset{NodeID: id, FileName: filenames[id]},
			}
		}

		downloadAll(jobs, outputDir, result)
		time.Sleep(interBatchDelay)
	}

	return result, nil
}

// DownloadImageFills downloads original fill images by imageRef using the
// ref -> URL table from the file images endpoint. Files are named after the
// reference itself so the rewriting stage can look them up by stem. Returns
// the references that had no usable URL; those go through the render
// fallback.
func DownloadImageFills(urls map[string]string, refs []string, outputDir string) (*Result, []string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	result := &Result{}
	var unresolved []string

	jobs := make(map[string]downloadJob, len(refs))
	for _, ref := range refs {
		url := urls[ref]
		if url == "" {
			unresolved = append(unresolved, ref)
			continue
		}
		fileName := ref + extFromURL(url)
		jobs[ref] = downloadJob{
			url:      url,
			fileName: fileName,
			asset:    Asset{ImageRef: ref, FileName: fileName},
		}
	}

	downloadAll(jobs, outputDir, result)
	return result, unresolved, nil
}

// RenderNodes renders the given nodes as PNG at 2x and downloads them. Each
// node is filed under the name in the table (an imageRef for fill fallbacks,
// a sanitized id for direct image nodes). Used when original image URLs are
// unavailable.
func RenderNodes(client *figma.Client, fileKey string, fileNames map[string]string, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	result := &Result{}
	if len(fileNames) == 0 {
		return result, nil
	}

	nodeIDs := make([]string, 0, len(fileNames))
	for id := range fileNames {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	for _, batch := range batchIDs(nodeIDs, exportBatchSize) {
		imgResp, err := client.GetImages(fileKey, batch, "png", 2)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("render batch failed: %w", err))
			continue
		}

		jobs := make(map[string]downloadJob, len(batch))
		for _, id := range batch {
			url := imgResp.Images[id]
			if url == "" {
				result.Errors = append(result.Errors, fmt.Errorf("no render URL returned for node %s", id))
				continue
			}
			fileName := fileNames[id] + ".png"
			jobs[id] = downloadJob{
				url:      url,
				fileName: fileName,
				asset:    Asset{NodeID: id, FileName: fileName},
			}
		}

		downloadAll(jobs, outputDir, result)
		time.Sleep(interBatchDelay)
	}

	return result, nil
}

type downloadJob struct {
	url      string
	fileName string
	asset    Asset
}

// downloadAll fetches every job concurrently, bounded by a semaphore, and
// appends outcomes to result under a shared mutex.
func downloadAll(jobs map[string]downloadJob, outputDir string, result *Result) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelDownloads)
	var mu sync.Mutex

	for _, job := range jobs {
		wg.Add(1)
		go func(job downloadJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			destPath := filepath.Join(outputDir, job.fileName)
			size, err := downloadFile(job.url, destPath)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("failed to download %s: %w", job.fileName, err))
				return
			}

			asset := job.asset
			asset.Path = destPath
			asset.Size = size
			result.Assets = append(result.Assets, asset)
		}(job)
	}

	wg.Wait()
}

// downloadFile performs an HTTP GET and saves the response body to destPath,
// returning the number of bytes written.
func downloadFile(url, destPath string) (int64, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d downloading asset", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %q: %w", destPath, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write file %q: %w", destPath, err)
	}

	return n, nil
}

// batchIDs splits ids into consecutive slices of at most size elements.
func batchIDs(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// extFromURL guesses a file extension from a download URL, defaulting to
// .png when nothing recognizable appears.
func extFromURL(url string) string {
	lower := strings.ToLower(url)
	for _, ext := range []string{".png", ".jpeg", ".jpg", ".gif", ".webp", ".svg"} {
		if strings.Contains(lower, ext) {
			if ext == ".jpeg" {
				return ".jpg"
			}
			return ext
		}
	}
	return ".png"
}
