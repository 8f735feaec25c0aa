// Package spaces uploads extracted assets to a DigitalOcean Spaces bucket.
// Spaces is S3-compatible, so the implementation rides on minio-go; uploads
// are public-read since the whole point is serving the files from the CDN.
package spaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the Spaces connection settings.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string // e.g. "nyc3"
	SpaceName string // bucket name
}

// Endpoint returns the regional Spaces endpoint host.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s.digitaloceanspaces.com", c.Region)
}

// FileInfo describes one uploaded object, in the shape the urls.json export
// and the URL-rewriting stage consume.
type FileInfo struct {
	Filename   string  `json:"filename"`
	RemotePath string  `json:"remote_path"`
	URL        string  `json:"url"`
	CDNURL     string  `json:"cdn_url"`
	SizeMB     float64 `json:"size_mb"`
}

// Uploader wraps a minio client bound to one Space.
type Uploader struct {
	client *minio.Client
	cfg    Config
}

// New creates an Uploader for the configured Space.
func New(cfg Config) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: true,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create spaces client: %w", err)
	}

	return &Uploader{client: client, cfg: cfg}, nil
}

// TestConnection verifies the Space exists and the credentials can see it.
func (u *Uploader) TestConnection(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.cfg.SpaceName)
	if err != nil {
		return fmt.Errorf("spaces connection test: %w", err)
	}
	if !exists {
		return fmt.Errorf("space %q not found in region %q", u.cfg.SpaceName, u.cfg.Region)
	}
	return nil
}

// UploadFile uploads a single local file to remotePath with a public-read
// ACL and a content type derived from the extension.
func (u *Uploader) UploadFile(ctx context.Context, localPath, remotePath string) (FileInfo, error) {
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{
		ContentType: contentType,
		// x-amz-* keys pass through as raw headers; this sets the ACL.
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	}

	info, err := u.client.FPutObject(ctx, u.cfg.SpaceName, remotePath, localPath, opts)
	if err != nil {
		return FileInfo{}, fmt.Errorf("upload %q: %w", localPath, err)
	}

	return FileInfo{
		Filename:   filepath.Base(localPath),
		RemotePath: remotePath,
		URL:        u.FileURL(remotePath),
		CDNURL:     u.CDNURL(remotePath),
		SizeMB:     float64(info.Size) / (1024 * 1024),
	}, nil
}

// UploadDirectory uploads every regular file under localDir to remoteFolder,
// preserving relative structure. Per-file failures are collected and do not
// stop the remaining uploads.
func (u *Uploader) UploadDirectory(ctx context.Context, localDir, remoteFolder string) ([]FileInfo, []error) {
	var files []FileInfo
	var errs []error

	walkErr := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		remotePath := path.Join(remoteFolder, filepath.ToSlash(rel))

		info, err := u.UploadFile(ctx, p, remotePath)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		files = append(files, info)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walk %q: %w", localDir, walkErr))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RemotePath < files[j].RemotePath })
	return files, errs
}

// FileURL returns the origin URL for an uploaded object.
func (u *Uploader) FileURL(remotePath string) string {
	return fmt.Sprintf("https://%s.%s/%s", u.cfg.SpaceName, u.cfg.Endpoint(), remotePath)
}

// CDNURL returns the CDN edge URL for an uploaded object.
func (u *Uploader) CDNURL(remotePath string) string {
	return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s", u.cfg.SpaceName, u.cfg.Region, remotePath)
}

// ListFiles lists up to maxFiles objects under prefix.
func (u *Uploader) ListFiles(ctx context.Context, prefix string, maxFiles int) ([]FileInfo, error) {
	var files []FileInfo

	for obj := range u.client.ListObjects(ctx, u.cfg.SpaceName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return files, fmt.Errorf("list objects: %w", obj.Err)
		}
		files = append(files, FileInfo{
			Filename:   path.Base(obj.Key),
			RemotePath: obj.Key,
			URL:        u.FileURL(obj.Key),
			CDNURL:     u.CDNURL(obj.Key),
			SizeMB:     float64(obj.Size) / (1024 * 1024),
		})
		if maxFiles > 0 && len(files) >= maxFiles {
			break
		}
	}

	return files, nil
}

// urlsDocument is the persisted urls.json shape the rewriting stage loads.
type urlsDocument struct {
	GeneratedAt string     `json:"generated_at"`
	Space       string     `json:"space"`
	Region      string     `json:"region"`
	TotalFiles  int        `json:"total_files"`
	Files       []FileInfo `json:"files"`
}

// ExportURLsJSON writes the uploaded-file index to outputPath.
func (u *Uploader) ExportURLsJSON(files []FileInfo, outputPath string) error {
	doc := urlsDocument{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Space:       u.cfg.SpaceName,
		Region:      u.cfg.Region,
		TotalFiles:  len(files),
		Files:       files,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal urls document: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", outputPath, err)
	}
	return nil
}
