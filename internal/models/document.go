package models

import (
	"io"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatTXT         Format = "txt"
	FormatUnsupported Format = "unsupported"
)

// DetectFormat derives the document format from the file name suffix.
// Matching is case-insensitive, so "REPORT.PDF" is a PDF.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".txt":
		return FormatTXT
	default:
		return FormatUnsupported
	}
}

// UploadedDocument is a file handed to the loader. It is discarded after
// extraction.
type UploadedDocument struct {
	Name    string
	Format  Format
	Content io.Reader
}

// NewUploadedDocument builds an UploadedDocument with the format taken from
// the name.
func NewUploadedDocument(name string, r io.Reader) UploadedDocument {
	return UploadedDocument{
		Name:    name,
		Format:  DetectFormat(name),
		Content: r,
	}
}

// ExtractedContent is the immutable result of loading a document.
type ExtractedContent struct {
	Source        string
	Format        Format
	Text          string
	ImageCaptions []string
	PageCount     int
}

// Image is an embedded raster image discovered while loading.
type Image struct {
	Index    int
	Path     string
	MIMEType string
	Width    int
	Height   int
}
