package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"metascrub/pkg/filekind"
)

const (
	contentTypesPart   = "[Content_Types].xml"
	packageRelsPart    = "_rels/.rels"
	defaultCorePart    = "docProps/core.xml"
	relOfficeDocument  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relStrictOfficeDoc = "http://purl.oclc.org/ooxml/officeDocument/relationships/officeDocument"
	relCoreProperties  = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relStrictCoreProps = "http://schemas.openxmlformats.org/officedocument/2006/relationships/metadata/core-properties"
)

// coreFields lists, by local element name, the core properties emptied for
// each document family.
var coreFields = map[filekind.Kind][]string{
	filekind.WordDocument: {"creator", "title", "subject", "keywords", "lastModifiedBy", "description"},
	filekind.Spreadsheet:  {"creator", "title", "subject", "keywords", "lastModifiedBy"},
	filekind.Presentation: {"creator", "title", "subject", "keywords", "lastModifiedBy", "description"},
}

// CleanDocument empties the identifying core properties of a .docx file.
func (p *Processor) CleanDocument(ctx context.Context, path string) (string, error) {
	return p.cleanPackage(ctx, path, filekind.WordDocument)
}

// CleanSpreadsheet empties the identifying core properties of a .xlsx file.
// The workbook is opened with excelize first so that non-workbook packages
// are rejected before anything is written.
func (p *Processor) CleanSpreadsheet(ctx context.Context, path string) (string, error) {
	if err := checkWorkbook(path); err != nil {
		return "", errorf(DecodeError, "cannot open workbook: %w", err)
	}
	return p.cleanPackage(ctx, path, filekind.Spreadsheet)
}

// CleanPresentation empties the identifying core properties of a .pptx file.
func (p *Processor) CleanPresentation(ctx context.Context, path string) (string, error) {
	return p.cleanPackage(ctx, path, filekind.Presentation)
}

func checkWorkbook(path string) error {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer wb.Close()
	if len(wb.GetSheetList()) == 0 {
		return errors.New("workbook has no sheets")
	}
	return nil
}

func (p *Processor) cleanPackage(ctx context.Context, path string, kind filekind.Kind) (string, error) {
	out := OutputPath(path, kind)

	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", errorf(DecodeError, "cannot open as ZIP: %w", err)
	}
	defer zr.Close()

	corePart, err := inspectPackage(&zr.Reader)
	if err != nil {
		return "", newError(DecodeError, err)
	}

	if err := ctx.Err(); err != nil {
		return "", newError(IOError, err)
	}

	err = writeAtomic(out, fileMode(path), func(w io.Writer) error {
		return rewritePackage(&zr.Reader, w, corePart, coreFields[kind])
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

type relationships struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// inspectPackage checks that zr is an Office package with a main document
// and returns the name of its core-properties part ("" if it has none).
func inspectPackage(zr *zip.Reader) (string, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	if files[contentTypesPart] == nil {
		return "", fmt.Errorf("not an Office document: missing %s", contentTypesPart)
	}
	relsFile := files[packageRelsPart]
	if relsFile == nil {
		return "", fmt.Errorf("not an Office document: missing %s", packageRelsPart)
	}

	data, err := readZipFile(relsFile)
	if err != nil {
		return "", err
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return "", fmt.Errorf("cannot parse package relationships: %w", err)
	}

	var mainPart, corePart string
	for _, rel := range rels.Relationships {
		target := strings.TrimPrefix(path.Clean("/"+rel.Target), "/")
		switch rel.Type {
		case relOfficeDocument, relStrictOfficeDoc:
			mainPart = target
		case relCoreProperties, relStrictCoreProps:
			corePart = target
		}
	}

	if mainPart == "" || files[mainPart] == nil {
		return "", errors.New("not an Office document: main document part missing")
	}
	if corePart == "" && files[defaultCorePart] != nil {
		corePart = defaultCorePart
	}
	if corePart != "" && files[corePart] == nil {
		corePart = ""
	}
	return corePart, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// rewritePackage copies every entry of zr to w in order. Entries other than
// the core-properties part are copied compressed, byte for byte.
func rewritePackage(zr *zip.Reader, w io.Writer, corePart string, fields []string) error {
	zw := zip.NewWriter(w)

	for _, f := range zr.File {
		if f.Name != corePart {
			if err := zw.Copy(f); err != nil {
				return errorf(EncodeError, "cannot copy %s: %w", f.Name, err)
			}
			continue
		}

		data, err := readZipFile(f)
		if err != nil {
			return errorf(DecodeError, "cannot read %s: %w", f.Name, err)
		}
		cleaned, err := clearCoreFields(data, fields)
		if err != nil {
			return errorf(DecodeError, "cannot parse %s: %w", f.Name, err)
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return errorf(EncodeError, "cannot write %s: %w", f.Name, err)
		}
		if _, err := fw.Write(cleaned); err != nil {
			return errorf(EncodeError, "cannot write %s: %w", f.Name, err)
		}
	}

	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return newError(EncodeError, err)
		}
	}
	if err := zw.Close(); err != nil {
		return newError(EncodeError, err)
	}
	return nil
}

// clearCoreFields empties the text of the named top-level elements of a
// core-properties document. The rest of the document is preserved byte for
// byte, including namespace prefixes and attributes.
func clearCoreFields(data []byte, fields []string) ([]byte, error) {
	targets := make(map[string]bool, len(fields))
	for _, f := range fields {
		targets[f] = true
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var out bytes.Buffer
	var copied int64
	contentStart := int64(-1)
	depth := 0

	for {
		before := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && targets[t.Name.Local] {
				contentStart = dec.InputOffset()
			}
		case xml.EndElement:
			if depth == 2 && contentStart >= 0 {
				out.Write(data[copied:contentStart])
				copied = before
				contentStart = -1
			}
			depth--
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced XML elements")
	}

	out.Write(data[copied:])
	return out.Bytes(), nil
}
