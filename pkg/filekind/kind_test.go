package filekind

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"photo.jpg", RasterImage},
		{"photo.JPG", RasterImage},
		{"photo.jpeg", RasterImage},
		{"scan.PNG", RasterImage},
		{"/tmp/report.pdf", PDFDocument},
		{"letter.docx", WordDocument},
		{"budget.XLSX", Spreadsheet},
		{"deck.pptx", Presentation},
		{"clip.mp4", Video},
		{"clip.MOV", Video},
		{"notes.txt", Unsupported},
		{"archive.tar.gz", Unsupported},
		{"legacy.doc", Unsupported},
		{"noext", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestKindTag(t *testing.T) {
	tests := map[Kind]string{
		RasterImage:  "IMAGE",
		PDFDocument:  "PDF",
		WordDocument: "DOCX",
		Spreadsheet:  "XLSX",
		Presentation: "PPTX",
		Video:        "VIDEO",
		Unsupported:  "SKIP",
	}
	for kind, want := range tests {
		if got := kind.Tag(); got != want {
			t.Errorf("%v.Tag() = %q, want %q", kind, got, want)
		}
	}
}

func TestSupportedCoversEveryExtension(t *testing.T) {
	seen := 0
	for _, entry := range Supported() {
		if len(entry.Extensions) == 0 {
			t.Fatalf("kind %v has no extensions", entry.Kind)
		}
		for _, ext := range entry.Extensions {
			if FromExt(ext) != entry.Kind {
				t.Errorf("FromExt(%q) = %v, want %v", ext, FromExt(ext), entry.Kind)
			}
			seen++
		}
	}
	if seen != len(extensions) {
		t.Fatalf("Supported listed %d extensions, want %d", seen, len(extensions))
	}
}

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Signature
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F'}, SigJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, SigPNG},
		{"pdf", []byte("%PDF-1.7\n"), SigPDF},
		{"zip", []byte("PK\x03\x04\x14\x00\x06\x00"), SigZip},
		{"mp4", []byte("\x00\x00\x00\x20ftypisom"), SigISOBMFF},
		{"text", []byte("hello world"), SigUnknown},
	}

	for _, tt := range tests {
		got, err := DetectHeader(tt.header)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := DetectHeader([]byte{0xff}); err == nil {
		t.Fatal("expected error for short header")
	}
}

func TestSniffFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sig, err := SniffFile(path)
	if err == nil {
		t.Fatalf("expected error for empty file, got %v", sig)
	}
}

func TestSignatureMatches(t *testing.T) {
	if !SigPNG.Matches(RasterImage) || !SigJPEG.Matches(RasterImage) {
		t.Fatal("image signatures should match RasterImage")
	}
	if SigZip.Matches(PDFDocument) {
		t.Fatal("zip should not match PDFDocument")
	}
	if !SigZip.Matches(Presentation) {
		t.Fatal("zip should match Presentation")
	}
	if SigISOBMFF.Matches(Unsupported) {
		t.Fatal("nothing matches Unsupported")
	}
}
