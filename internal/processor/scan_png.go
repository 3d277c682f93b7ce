package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxMetadataChunk bounds the text and EXIF chunks read into memory.
const maxMetadataChunk = 16 << 20

// scanPNGMetadata walks the chunks of a PNG and records text chunks,
// modification time and embedded EXIF.
func scanPNGMetadata(rs io.ReadSeeker) (detailSet, error) {
	set := detailSet{}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return set, err
	}

	br := bufio.NewReader(rs)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return set, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return set, errors.New("invalid PNG signature")
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				return set, nil
			}
			return set, err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))
		chunkName := string(header[4:])

		switch chunkName {
		case "tEXt", "zTXt", "iTXt", "tIME", "eXIf":
			if length > maxMetadataChunk {
				return set, fmt.Errorf("%s chunk too large (%d bytes)", chunkName, length)
			}
			data, err := io.ReadAll(io.LimitReader(br, length))
			if err != nil {
				return set, err
			}
			if int64(len(data)) != length {
				return set, io.ErrUnexpectedEOF
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return set, err
			}
			if err := addPNGChunk(set, chunkName, data); err != nil {
				return set, err
			}
		default:
			if _, err := io.CopyN(io.Discard, br, length+4); err != nil {
				return set, err
			}
		}

		if chunkName == "IEND" {
			return set, nil
		}
	}
}

func addPNGChunk(set detailSet, chunkName string, data []byte) error {
	switch chunkName {
	case "tEXt":
		key, text, _ := bytes.Cut(data, []byte{0})
		set.add(string(key), string(text))
	case "zTXt":
		key, _, _ := bytes.Cut(data, []byte{0})
		set.add(string(key), "(compressed text)")
	case "iTXt":
		key, rest, _ := bytes.Cut(data, []byte{0})
		if len(rest) >= 2 && rest[0] == 0 {
			// skip compression flag and method, then language and translated keyword
			_, rest, _ = bytes.Cut(rest[2:], []byte{0})
			_, text, _ := bytes.Cut(rest, []byte{0})
			set.add(string(key), string(text))
		} else {
			set.add(string(key), "(compressed text)")
		}
	case "tIME":
		if len(data) == 7 {
			set.add("ModifyTime", fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
				binary.BigEndian.Uint16(data[:2]), data[2], data[3], data[4], data[5], data[6]))
		}
	case "eXIf":
		if err := analyzeExifBlock(set, data); err != nil {
			set.add("eXIf", "present (unreadable)")
		}
	}
	return nil
}
