package constants

import "strings"

// MaxUploadBytes is the default upload size limit accepted by the extraction endpoint.
const MaxUploadBytes int64 = 10 * 1024 * 1024

// AllowedExtensions holds the file extensions accepted for upload-and-extract.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// ExportFormats are the server-side export formats for drafts.
var ExportFormats = []string{"pdf", "docx"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) can be uploaded.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
