package processor

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metascrub/internal/logging"
)

func TestScanCleanJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.jpg")

	if err := buildJPEGWithExif(src); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}

	p := New(logging.Discard(), DefaultOptions())
	details := scanDetails(t, p, src)
	if !hasDetail(details, CategoryDevice) || !hasDetail(details, CategoryTimestamp) || !hasDetail(details, CategoryAuthor) {
		t.Fatalf("expected author, model and timestamp details, got: %#v", details)
	}

	res := p.Process(testContext(t), src)
	if !res.Produced() {
		t.Fatalf("clean JPEG: %v", res.Err)
	}
	if res.Leaks == 0 {
		t.Errorf("expected leaks to be counted, got 0")
	}

	cleanDetails := scanDetails(t, p, res.Output)
	if len(cleanDetails) != 0 {
		t.Fatalf("expected no details after clean, got: %#v", cleanDetails)
	}
}

func TestAnalyzeExifReadsJPEGTags(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sample.jpg")
	if err := buildJPEGWithExif(src); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}
	f, err := os.Open(src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	set, err := analyzeExif(f)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := map[string]string{
		CategoryAuthor:    "Artist=Jane Doe",
		CategoryDevice:    "Model=",
		CategoryTimestamp: "DateTime=",
	}
	for cat, prefix := range want {
		found := false
		for _, v := range set[cat] {
			if strings.HasPrefix(v, prefix) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no entry starting with %q in %v", cat, prefix, set[cat])
		}
	}
}

func TestAnalyzeExifWithoutExif(t *testing.T) {
	data, err := encodeRedJPEG(4, 4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	set, err := analyzeExif(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected no tags, got %v", set)
	}
}

func TestScanCleanPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.png")

	if err := buildPNGWithMetadata(src); err != nil {
		t.Fatalf("build PNG: %v", err)
	}

	p := New(logging.Discard(), DefaultOptions())
	details := scanDetails(t, p, src)
	if !hasDetail(details, CategoryDevice) || !hasDetail(details, CategoryTimestamp) {
		t.Fatalf("expected model and timestamp details, got: %#v", details)
	}

	res := p.Process(testContext(t), src)
	if !res.Produced() {
		t.Fatalf("clean PNG: %v", res.Err)
	}

	cleanDetails := scanDetails(t, p, res.Output)
	if len(cleanDetails) != 0 {
		t.Fatalf("expected no details after clean, got: %#v", cleanDetails)
	}
}

func TestInspectUnsupported(t *testing.T) {
	p := New(logging.Discard(), DefaultOptions())
	_, err := p.Inspect(filepath.Join(t.TempDir(), "notes.txt"))
	if KindOf(err) != UnsupportedFormat {
		t.Fatalf("expected UnsupportedFormat, got %v", err)
	}
}

func scanDetails(t *testing.T, p *Processor, path string) []ScanDetail {
	t.Helper()

	report, err := p.Inspect(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return report.Details
}

func hasDetail(details []ScanDetail, category string) bool {
	for _, detail := range details {
		if detail.Category == category && len(detail.Values) > 0 {
			return true
		}
	}
	return false
}

// buildJPEGWithExif writes a decodable 10x10 red JPEG carrying an EXIF block
// (camera model, timestamp, artist) and a comment segment.
func buildJPEGWithExif(path string) error {
	data, err := encodeRedJPEG(10, 10)
	if err != nil {
		return err
	}

	exif := append([]byte("Exif\x00\x00"), buildExifTIFF()...)
	comment := []byte("shot by Jane Doe")

	var buf bytes.Buffer
	buf.Write(data[:2])
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write([]byte{0xff, 0xfe})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(comment)+2))
	buf.Write(comment)
	buf.Write(data[2:])

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func encodeRedJPEG(w, h int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, le, uint32(8))
	_ = binary.Write(&tiff, le, uint16(3))
	// Model
	_ = binary.Write(&tiff, le, uint16(0x0110))
	_ = binary.Write(&tiff, le, uint16(2))
	_ = binary.Write(&tiff, le, uint32(8))
	_ = binary.Write(&tiff, le, uint32(50))
	// DateTime
	_ = binary.Write(&tiff, le, uint16(0x0132))
	_ = binary.Write(&tiff, le, uint16(2))
	_ = binary.Write(&tiff, le, uint32(20))
	_ = binary.Write(&tiff, le, uint32(58))
	// Artist
	_ = binary.Write(&tiff, le, uint16(0x013b))
	_ = binary.Write(&tiff, le, uint16(2))
	_ = binary.Write(&tiff, le, uint32(9))
	_ = binary.Write(&tiff, le, uint32(78))
	_ = binary.Write(&tiff, le, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	tiff.Write([]byte("Jane Doe\x00"))
	return tiff.Bytes()
}

func buildPNGWithMetadata(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	data := buf.Bytes()
	if len(data) < 12 || string(data[len(data)-8:len(data)-4]) != "IEND" {
		return os.ErrInvalid
	}

	textChunk := buildPNGChunk("tEXt", []byte("Model\x00TestCam"))
	timeChunk := buildPNGChunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})
	exifChunk := buildPNGChunk("eXIf", buildExifTIFF())

	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, textChunk...)
	out = append(out, timeChunk...)
	out = append(out, exifChunk...)
	out = append(out, data[insertAt:]...)

	return os.WriteFile(path, out, 0o644)
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crc := crc32.ChecksumIEEE(append(chunkTypeBytes, data...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}
