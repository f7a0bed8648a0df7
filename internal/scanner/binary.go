// Binary file detection for early rejection of non-text files.
// Prevents the extractor from attempting to parse binary data as source.
package scanner

import (
	"path/filepath"
	"strings"
)

var binaryExtensions = map[string]bool{
	// Fonts
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	// Images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".tif": true,
	// Archives
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".jar": true, ".war": true,
	// Executables and object code
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
	".o": true, ".obj": true, ".bin": true,
	// Media
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".flac": true, ".ogg": true,
	// Binary documents
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	// Databases
	".db": true, ".sqlite": true, ".sqlite3": true,
	// Bytecode
	".pyc": true, ".pyo": true, ".class": true, ".pickle": true, ".pkl": true,
}

// isBinaryExtension checks if a file is binary based on its extension alone.
func isBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return binaryExtensions[ext]
}

// binaryProbeSize is how much of the head of a file is inspected for
// binary content.
const binaryProbeSize = 8 * 1024

// isBinaryContent reports whether content looks binary: a NUL byte in
// the first 8 KiB, or a high proportion of non-printable bytes.
func isBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > binaryProbeSize {
		sample = sample[:binaryProbeSize]
	}

	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		}
		// Bytes >= 0x80 may be UTF-8; not counted as non-printable to
		// avoid false positives on non-ASCII text.
	}
	return nonPrintable > len(sample)*30/100
}
