package figma

import "encoding/json"

// FileResponse represents the complete response from the Figma file API endpoint.
// It contains the file metadata and the full document tree. Raw holds the same
// payload decoded as generic JSON so that later stages (manifest embedding, URL
// rewriting) can operate on fields the typed model does not carry.
type FileResponse struct {
	Name          string `json:"name"`
	LastModified  string `json:"lastModified"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	Version       string `json:"version"`
	Document      Node   `json:"document"`
	SchemaVersion int    `json:"schemaVersion"`

	Raw map[string]any `json:"-"`
}

// NodesResponse represents the response from the Figma nodes API endpoint
// when fetching specific nodes rather than the entire file.
type NodesResponse struct {
	Name         string              `json:"name"`
	LastModified string              `json:"lastModified"`
	Version      string              `json:"version"`
	Nodes        map[string]NodeData `json:"nodes"`
}

// NodeData wraps a requested node with its document subtree.
type NodeData struct {
	Document Node `json:"document"`
}

// ImagesResponse represents the response from the image export (render)
// endpoint. Images maps node IDs to short-lived download URLs; a node that
// could not be rendered maps to an empty string.
type ImagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}

// imageFillsResponse is the wire shape of the file images endpoint, which
// maps imageRef values to original download URLs.
type imageFillsResponse struct {
	Error  bool `json:"error"`
	Status int  `json:"status"`
	Meta   struct {
		Images map[string]string `json:"images"`
	} `json:"meta"`
}

// meResponse is the wire shape of the token validation endpoint.
type meResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Handle string `json:"handle"`
}

// Node represents a single element in the Figma document tree hierarchy.
// Only the fields the classification and export pipeline reads are modeled;
// everything else stays in FileResponse.Raw.
type Node struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Children            []Node     `json:"children,omitempty"`
	Fills               []Paint    `json:"fills,omitempty"`
	Backgrounds         []Paint    `json:"backgrounds,omitempty"`
	Background          []Paint    `json:"background,omitempty"` // legacy key, still emitted for FRAME/CANVAS
	IsMask              bool       `json:"isMask,omitempty"`
	ImageRef            string     `json:"imageRef,omitempty"` // set on directly placed IMAGE nodes
	AbsoluteBoundingBox *Rectangle `json:"absoluteBoundingBox,omitempty"`
}

// Paint represents a fill or background applied to a Figma node.
type Paint struct {
	Type           string          `json:"type"`
	Visible        *bool           `json:"visible,omitempty"` // nil means visible (Figma default)
	Opacity        float64         `json:"opacity,omitempty"`
	Color          *Color          `json:"color,omitempty"`
	ImageRef       string          `json:"imageRef,omitempty"`
	ScaleMode      string          `json:"scaleMode,omitempty"`
	ImageTransform json.RawMessage `json:"imageTransform,omitempty"`
}

// Color represents an RGBA color with float values ranging from 0 to 1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Rectangle represents a bounding box with position and dimensions,
// matching Figma's absoluteBoundingBox shape.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
