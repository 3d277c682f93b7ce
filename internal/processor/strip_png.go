package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// stripPNGChunks copies a PNG stream without its ancillary metadata chunks.
// Image data chunks are copied with their original CRCs.
func stripPNGChunks(r io.Reader, w io.Writer, preserveICC bool) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}
	if _, err := bw.Write(sig); err != nil {
		return err
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))
		chunkName := string(header[4:])

		if dropPNGChunk(chunkName, preserveICC) {
			if _, err := io.CopyN(io.Discard, br, length+4); err != nil {
				return err
			}
			continue
		}

		if _, err := bw.Write(header); err != nil {
			return err
		}
		if _, err := io.CopyN(bw, br, length+4); err != nil {
			return err
		}
		if chunkName == "IEND" {
			break
		}
	}

	return bw.Flush()
}

func dropPNGChunk(chunkName string, preserveICC bool) bool {
	switch chunkName {
	case "tEXt", "zTXt", "iTXt", "eXIf", "tIME":
		return true
	case "iCCP":
		return !preserveICC
	}
	return false
}
