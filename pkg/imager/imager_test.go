package imager

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBatchIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		size int
		want [][]string
	}{
		{
			name: "empty input",
			ids:  nil,
			size: 10,
			want: nil,
		},
		{
			name: "single partial batch",
			ids:  []string{"a", "b"},
			size: 10,
			want: [][]string{{"a", "b"}},
		},
		{
			name: "exact multiple",
			ids:  []string{"a", "b", "c", "d"},
			size: 2,
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "trailing remainder",
			ids:  []string{"a", "b", "c"},
			size: 2,
			want: [][]string{{"a", "b"}, {"c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := batchIDs(tt.ids, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("batchIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example/img.png?sig=abc", ".png"},
		{"https://cdn.example/photo.jpeg", ".jpg"},
		{"https://cdn.example/photo.jpg", ".jpg"},
		{"https://cdn.example/anim.gif", ".gif"},
		{"https://cdn.example/pic.webp", ".webp"},
		{"https://cdn.example/icon.svg", ".svg"},
		{"https://cdn.example/opaque-token", ".png"},
	}

	for _, tt := range tests {
		if got := extFromURL(tt.url); got != tt.want {
			t.Errorf("extFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDownloadImageFills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	outputDir := t.TempDir()
	urls := map[string]string{
		"ref-a": srv.URL + "/a.png",
		// ref-b intentionally absent; it must come back unresolved.
	}

	result, unresolved, err := DownloadImageFills(urls, []string{"ref-a", "ref-b"}, outputDir)
	if err != nil {
		t.Fatalf("DownloadImageFills() error = %v", err)
	}

	if !reflect.DeepEqual(unresolved, []string{"ref-b"}) {
		t.Errorf("unresolved = %v, want [ref-b]", unresolved)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("assets = %d, want 1", len(result.Assets))
	}

	asset := result.Assets[0]
	if asset.ImageRef != "ref-a" {
		t.Errorf("ImageRef = %q", asset.ImageRef)
	}
	if asset.FileName != "ref-a.png" {
		t.Errorf("FileName = %q, want ref-a.png", asset.FileName)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "ref-a.png"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("file content = %q", data)
	}
	if asset.Size != int64(len("image-bytes")) {
		t.Errorf("Size = %d", asset.Size)
	}
}

func TestDownloadImageFillsCollectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result, unresolved, err := DownloadImageFills(
		map[string]string{"ref-a": srv.URL + "/gone.png"},
		[]string{"ref-a"},
		t.TempDir(),
	)
	if err != nil {
		t.Fatalf("DownloadImageFills() error = %v", err)
	}

	if len(unresolved) != 0 {
		t.Errorf("a failed download is not an unresolved ref: %v", unresolved)
	}
	if len(result.Assets) != 0 {
		t.Errorf("assets = %d, want 0", len(result.Assets))
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(result.Errors))
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("svg-content"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.svg")
	n, err := downloadFile(srv.URL, dest)
	if err != nil {
		t.Fatalf("downloadFile() error = %v", err)
	}
	if n != int64(len("svg-content")) {
		t.Errorf("bytes written = %d", n)
	}
}
