package filekind

import (
	"path/filepath"
	"slices"
	"strings"
)

// Kind identifies a supported file family.
type Kind int

const (
	Unsupported Kind = iota
	RasterImage
	PDFDocument
	WordDocument
	Spreadsheet
	Presentation
	Video
)

func (k Kind) String() string {
	switch k {
	case RasterImage:
		return "image"
	case PDFDocument:
		return "pdf"
	case WordDocument:
		return "docx"
	case Spreadsheet:
		return "xlsx"
	case Presentation:
		return "pptx"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

// Tag is the label written in front of every log line for this kind.
func (k Kind) Tag() string {
	if k == Unsupported {
		return "SKIP"
	}
	if k == RasterImage {
		return "IMAGE"
	}
	return strings.ToUpper(k.String())
}

var extensions = map[string]Kind{
	".jpg":  RasterImage,
	".jpeg": RasterImage,
	".png":  RasterImage,
	".pdf":  PDFDocument,
	".docx": WordDocument,
	".xlsx": Spreadsheet,
	".pptx": Presentation,
	".mp4":  Video,
	".mov":  Video,
}

// Classify maps a path to its Kind using the extension only.
func Classify(path string) Kind {
	return FromExt(filepath.Ext(path))
}

// FromExt maps an extension (with the leading dot) to its Kind.
func FromExt(ext string) Kind {
	if kind, ok := extensions[strings.ToLower(ext)]; ok {
		return kind
	}
	return Unsupported
}

// Entry lists the extensions handled by one Kind.
type Entry struct {
	Kind       Kind
	Extensions []string
}

// Supported returns every supported kind with its extensions, in Kind order.
func Supported() []Entry {
	byKind := make(map[Kind][]string)
	for ext, kind := range extensions {
		byKind[kind] = append(byKind[kind], ext)
	}

	entries := make([]Entry, 0, len(byKind))
	for kind := RasterImage; kind <= Video; kind++ {
		exts := byKind[kind]
		slices.Sort(exts)
		entries = append(entries, Entry{Kind: kind, Extensions: exts})
	}
	return entries
}
