package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// JPEG markers the segment walker cares about.
const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerTEM  = 0x01
	markerAPP1 = 0xe1
	markerAPP2 = 0xe2
	markerAPPD = 0xed
	markerCOM  = 0xfe
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegXmpExt     = []byte("http://ns.adobe.com/xmp/extension/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

// stripJPEGSegments copies a JPEG stream while dropping metadata segments,
// including any that sit between progressive scans. Entropy-coded data is
// copied untouched, so pixels are preserved bit for bit. Output ends at EOI;
// bytes appended after it are not copied.
func stripJPEGSegments(r io.Reader, w io.Writer, preserveICC bool) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return err
	}
	if soi[0] != 0xff || soi[1] != markerSOI {
		return errors.New("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return err
	}

	var pending byte
	for {
		marker := pending
		pending = 0
		if marker == 0 {
			var err error
			if marker, err = nextJPEGMarker(br); err != nil {
				return err
			}
		}

		switch {
		case marker == markerEOI:
			if _, err := bw.Write([]byte{0xff, markerEOI}); err != nil {
				return err
			}
			return bw.Flush()
		case marker == markerTEM || (marker >= 0xd0 && marker <= 0xd7):
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return errors.New("invalid JPEG segment length")
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return err
		}

		if dropJPEGSegment(marker, payload, preserveICC) {
			continue
		}

		if _, err := bw.Write([]byte{0xff, marker}); err != nil {
			return err
		}
		if _, err := bw.Write(lenBuf); err != nil {
			return err
		}
		if _, err := bw.Write(payload); err != nil {
			return err
		}

		if marker == markerSOS {
			next, err := copyEntropyData(br, bw)
			if errors.Is(err, io.EOF) {
				return bw.Flush()
			}
			if err != nil {
				return err
			}
			pending = next
		}
	}
}

// copyEntropyData copies scan data up to the next real marker and returns
// that marker. Stuffed zero bytes and restart markers belong to the scan.
func copyEntropyData(br *bufio.Reader, bw *bufio.Writer) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xff {
			if err := bw.WriteByte(b); err != nil {
				return 0, err
			}
			continue
		}

		next, err := br.ReadByte()
		for err == nil && next == 0xff {
			next, err = br.ReadByte()
		}
		if err != nil {
			return 0, err
		}
		if next != 0x00 && (next < 0xd0 || next > 0xd7) {
			return next, nil
		}
		if _, err := bw.Write([]byte{0xff, next}); err != nil {
			return 0, err
		}
	}
}

// nextJPEGMarker skips fill bytes and returns the next marker code.
func nextJPEGMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for b != 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	for b == 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func dropJPEGSegment(marker byte, payload []byte, preserveICC bool) bool {
	switch marker {
	case markerAPP1:
		return bytes.HasPrefix(payload, jpegExifHeader) ||
			bytes.HasPrefix(payload, jpegXmpHeader) ||
			bytes.HasPrefix(payload, jpegXmpExt)
	case markerAPPD:
		return bytes.HasPrefix(payload, jpegPhotoshop)
	case markerAPP2:
		return !preserveICC && bytes.HasPrefix(payload, jpegICCHeader)
	case markerCOM:
		return true
	}
	return false
}
