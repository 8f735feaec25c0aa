package extractor

import "strings"

// svgExtension is the fixed extension for vector exports.
const svgExtension = ".svg"

// SanitizeID converts a native Figma node id (format "<major>:<minor>") into
// the filesystem- and key-safe form used across stages: every colon becomes
// an underscore. Pure function of the id; distinct ids stay distinct.
func SanitizeID(nodeID string) string {
	return strings.ReplaceAll(nodeID, ":", "_")
}

// DeriveFilename maps a native node id to the SVG filename the export,
// upload, and URL-rewriting stages all agree on. It is a deterministic, pure
// function of the id alone (never of name, path, or extraction reason), so
// any stage holding only the id can recompute the filename independently of
// this package's in-memory state.
func DeriveFilename(nodeID string) string {
	return SanitizeID(nodeID) + svgExtension
}
