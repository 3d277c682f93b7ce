package filekind

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Signature identifies the container a file actually holds, regardless of
// its extension.
type Signature int

const (
	SigUnknown Signature = iota
	SigJPEG
	SigPNG
	SigPDF
	SigZip
	SigISOBMFF
)

func (s Signature) String() string {
	switch s {
	case SigJPEG:
		return "jpeg"
	case SigPNG:
		return "png"
	case SigPDF:
		return "pdf"
	case SigZip:
		return "zip"
	case SigISOBMFF:
		return "isobmff"
	default:
		return "unknown"
	}
}

// Matches reports whether a file with this signature can be handled as kind.
func (s Signature) Matches(kind Kind) bool {
	switch kind {
	case RasterImage:
		return s == SigJPEG || s == SigPNG
	case PDFDocument:
		return s == SigPDF
	case WordDocument, Spreadsheet, Presentation:
		return s == SigZip
	case Video:
		return s == SigISOBMFF
	default:
		return false
	}
}

var (
	pngSig  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig = []byte{0xff, 0xd8, 0xff}
	pdfSig  = []byte("%PDF-")
	zipSig  = []byte("PK\x03\x04")
	ftypSig = []byte("ftyp")
)

// ErrShortHeader is returned when fewer than 8 bytes are available.
var ErrShortHeader = errors.New("header too short")

// DetectHeader inspects the first bytes of a file for known signatures.
func DetectHeader(header []byte) (Signature, error) {
	if len(header) < 8 {
		return SigUnknown, ErrShortHeader
	}

	switch {
	case bytes.HasPrefix(header, jpegSig):
		return SigJPEG, nil
	case bytes.HasPrefix(header, pngSig):
		return SigPNG, nil
	case bytes.HasPrefix(header, pdfSig):
		return SigPDF, nil
	case bytes.HasPrefix(header, zipSig):
		return SigZip, nil
	case bytes.Equal(header[4:8], ftypSig):
		return SigISOBMFF, nil
	}

	return SigUnknown, nil
}

// SniffFile reads the first 12 bytes of a file to determine its signature.
func SniffFile(path string) (Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return SigUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to 12 bytes from r and determines its signature.
func SniffReader(r io.Reader) (Signature, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return SigUnknown, ErrShortHeader
		}
		return SigUnknown, err
	}

	return DetectHeader(header[:n])
}
