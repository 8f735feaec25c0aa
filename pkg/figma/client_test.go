package figma

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestExtractFileKey(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "valid /file/ URL",
			url:  "https://www.figma.com/file/ABC123XYZ/Design-Name",
			want: "ABC123XYZ",
		},
		{
			name: "valid /design/ URL",
			url:  "https://www.figma.com/design/ABC123XYZ/Design-Name",
			want: "ABC123XYZ",
		},
		{
			name: "URL with node-id parameter",
			url:  "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Makis-s-file?node-id=11933-305884",
			want: "4gkABR5gEZnIvlCaXmA4KI",
		},
		{
			name: "URL without www subdomain",
			url:  "https://figma.com/file/ABC123XYZ/Design-Name",
			want: "ABC123XYZ",
		},
		{
			name: "URL with http protocol",
			url:  "http://www.figma.com/file/ABC123XYZ/Design-Name",
			want: "ABC123XYZ",
		},
		{
			name: "URL with trailing slash",
			url:  "https://www.figma.com/file/ABC123XYZ/",
			want: "ABC123XYZ",
		},
		{
			name:    "invalid URL - missing file key",
			url:     "https://www.figma.com/file/",
			wantErr: true,
		},
		{
			name:    "invalid URL - wrong domain",
			url:     "https://www.example.com/file/ABC123XYZ",
			wantErr: true,
		},
		{
			name:    "invalid URL - wrong path",
			url:     "https://www.figma.com/dashboard/ABC123XYZ",
			wantErr: true,
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFileKey(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractFileKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractFileKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractNodeIDs(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{
			name: "node-id query parameter in dash form",
			url:  "https://www.figma.com/design/ABC/My-File?node-id=11933-305884",
			want: []string{"11933:305884"},
		},
		{
			name: "node-id query parameter in colon form",
			url:  "https://www.figma.com/design/ABC/My-File?node-id=1:2",
			want: []string{"1:2"},
		},
		{
			name: "multiple comma-separated ids",
			url:  "https://www.figma.com/design/ABC/My-File?node-id=1-2,3-4",
			want: []string{"1:2", "3:4"},
		},
		{
			name: "duplicate ids are removed",
			url:  "https://www.figma.com/design/ABC/My-File?node-id=1-2,1:2",
			want: []string{"1:2"},
		},
		{
			name: "hash fragment",
			url:  "https://www.figma.com/design/ABC/My-File#5-6",
			want: []string{"5:6"},
		},
		{
			name: "nodes path segment",
			url:  "https://www.figma.com/design/ABC/nodes/7-8",
			want: []string{"7:8"},
		},
		{
			name: "no node ids targets the whole file",
			url:  "https://www.figma.com/design/ABC/My-File",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNodeIDs(tt.url)
			if err != nil {
				t.Fatalf("ExtractNodeIDs() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNodeIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

// testClient returns a client pointed at a local test server.
func testClient(srv *httptest.Server) *Client {
	c := NewClient("test-token")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestGetFileDecodesTypedAndRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/KEY123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-Figma-Token") != "test-token" {
			t.Errorf("missing token header")
		}
		w.Write([]byte(`{
			"name": "Demo",
			"version": "42",
			"document": {"id": "0:0", "name": "Document", "type": "DOCUMENT"},
			"customField": "preserved"
		}`))
	}))
	defer srv.Close()

	resp, err := testClient(srv).GetFile("KEY123")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if resp.Name != "Demo" || resp.Document.Type != "DOCUMENT" {
		t.Errorf("typed decode wrong: %+v", resp)
	}
	if resp.Raw["customField"] != "preserved" {
		t.Errorf("raw decode dropped unknown field: %v", resp.Raw)
	}
}

func TestGetImagesSVGParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "svg" {
			t.Errorf("format = %q, want svg", q.Get("format"))
		}
		if q.Get("svg_include_id") != "true" || q.Get("svg_outline_text") != "false" || q.Get("svg_simplify_stroke") != "true" {
			t.Errorf("svg query params wrong: %v", q)
		}
		if q.Get("scale") != "" {
			t.Errorf("scale should not be set for svg exports")
		}
		w.Write([]byte(`{"err": "", "images": {"1:2": "https://cdn.example/1-2.svg"}}`))
	}))
	defer srv.Close()

	resp, err := testClient(srv).GetImages("KEY", []string{"1:2"}, "svg", 1)
	if err != nil {
		t.Fatalf("GetImages() error = %v", err)
	}
	if resp.Images["1:2"] == "" {
		t.Error("expected export URL for node 1:2")
	}
}

func TestGetImagesScaleParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("scale"); got != "2" {
			t.Errorf("scale = %q, want 2", got)
		}
		w.Write([]byte(`{"images": {}}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).GetImages("KEY", []string{"1:2"}, "png", 2); err != nil {
		t.Fatalf("GetImages() error = %v", err)
	}
}

func TestGetImagesEmptyIDsSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty id list")
	}))
	defer srv.Close()

	resp, err := testClient(srv).GetImages("KEY", nil, "svg", 1)
	if err != nil {
		t.Fatalf("GetImages() error = %v", err)
	}
	if len(resp.Images) != 0 {
		t.Errorf("expected empty image map, got %v", resp.Images)
	}
}

func TestGetImagesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"err": "node not found", "images": {}}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).GetImages("KEY", []string{"9:9"}, "svg", 1); err == nil {
		t.Fatal("expected error from err field in response")
	}
}

func TestGetFileImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/KEY/images" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"error": false, "status": 200, "meta": {"images": {"ref-a": "https://s3.example/a.png"}}}`))
	}))
	defer srv.Close()

	urls, err := testClient(srv).GetFileImages("KEY")
	if err != nil {
		t.Fatalf("GetFileImages() error = %v", err)
	}
	if urls["ref-a"] != "https://s3.example/a.png" {
		t.Errorf("urls = %v", urls)
	}
}

func TestValidateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"id": "u1", "email": "dev@example.com", "handle": "dev"}`))
	}))
	defer srv.Close()

	email, err := testClient(srv).ValidateToken()
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if email != "dev@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": "u1", "email": "dev@example.com"}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).ValidateToken(); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := testClient(srv).ValidateToken(); err == nil {
		t.Fatal("expected error on 403")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
