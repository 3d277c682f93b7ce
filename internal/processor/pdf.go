package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"metascrub/pkg/filekind"
)

func init() {
	// pdfcpu otherwise creates a config dir with font caches on first use.
	api.DisableConfigDir()
}

var pdfHeader = regexp.MustCompile(`%PDF-(\d\.\d)`)

const defaultPDFVersion = "1.7"

// CleanPDF writes a copy of a PDF without its document information
// dictionary. Every other live object is re-serialised unchanged, so page
// content, fonts and structure survive.
func (p *Processor) CleanPDF(ctx context.Context, path string) (string, error) {
	out := OutputPath(path, filekind.PDFDocument)

	f, err := os.Open(path)
	if err != nil {
		return "", errorf(DecodeError, "cannot open pdf: %w", err)
	}
	defer f.Close()

	pdf, err := readPDF(f)
	if err != nil {
		return "", errorf(DecodeError, "cannot parse pdf: %w", err)
	}

	version, err := pdfVersion(f)
	if err != nil {
		return "", newError(IOError, err)
	}

	if err := ctx.Err(); err != nil {
		return "", newError(IOError, err)
	}

	err = writeAtomic(out, fileMode(path), func(w io.Writer) error {
		if err := writePDFWithoutInfo(w, pdf, f, version); err != nil {
			return errorf(EncodeError, "cannot write pdf: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// readPDF loads the cross reference table of rs. pdfcpu reconstructs damaged
// tables where it can; a result without a catalog is still rejected.
func readPDF(rs io.ReadSeeker) (pdf *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf, err = nil, fmt.Errorf("malformed document: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdf, err = api.ReadContext(rs, conf)
	if err != nil {
		return nil, err
	}
	if pdf.Encrypt != nil {
		return nil, errors.New("encrypted documents are not supported")
	}
	if pdf.Root == nil {
		return nil, errors.New("missing document catalog")
	}
	return pdf, nil
}

func pdfVersion(rs io.ReadSeeker) (string, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	head := make([]byte, 1024)
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if m := pdfHeader.FindSubmatch(head[:n]); m != nil {
		return string(m[1]), nil
	}
	return defaultPDFVersion, nil
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(c, format, args...)
	return err
}

// writePDFWithoutInfo serialises every in-use object of pdf except the
// information dictionary, followed by a classic xref table and a trailer
// without /Info. Object and xref streams are not carried over: their members
// are written as plain objects.
func writePDFWithoutInfo(w io.Writer, pdf *model.Context, src io.ReadSeeker, version string) error {
	xref := pdf.XRefTable
	cw := &countingWriter{w: bufio.NewWriter(w)}

	infoNr := -1
	if xref.Info != nil {
		infoNr = int(xref.Info.ObjectNumber)
	}

	objNrs := make([]int, 0, len(xref.Table))
	for nr := range xref.Table {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	if err := cw.printf("%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version); err != nil {
		return err
	}

	offsets := map[int]int64{}
	gens := map[int]int{}
	size := 0
	if xref.Size != nil {
		size = *xref.Size
	}

	for _, nr := range objNrs {
		entry := xref.Table[nr]
		if nr == 0 || nr == infoNr || entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		if isXRefMachinery(entry.Object) {
			continue
		}

		body, err := pdfObjectBody(entry.Object, src)
		if err != nil {
			return fmt.Errorf("object %d: %w", nr, err)
		}

		gen := 0
		if entry.Generation != nil {
			gen = *entry.Generation
		}
		offsets[nr] = cw.n
		gens[nr] = gen
		if err := cw.printf("%d %d obj\n", nr, gen); err != nil {
			return err
		}
		if _, err := cw.Write(body); err != nil {
			return err
		}
		if err := cw.printf("\nendobj\n"); err != nil {
			return err
		}
		if nr >= size {
			size = nr + 1
		}
	}

	xrefOffset := cw.n
	if err := cw.printf("xref\n0 %d\n", size); err != nil {
		return err
	}
	for nr := 0; nr < size; nr++ {
		off, ok := offsets[nr]
		if !ok {
			if err := cw.printf("0000000000 65535 f\r\n"); err != nil {
				return err
			}
			continue
		}
		if err := cw.printf("%010d %05d n\r\n", off, gens[nr]); err != nil {
			return err
		}
	}

	trailer := types.NewDict()
	trailer.Insert("Size", types.Integer(size))
	trailer.Insert("Root", *xref.Root)
	if len(xref.ID) > 0 {
		trailer.Insert("ID", xref.ID)
	}
	if err := cw.printf("trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xrefOffset); err != nil {
		return err
	}
	return cw.w.Flush()
}

func isXRefMachinery(obj types.Object) bool {
	typed, ok := obj.(interface{ Type() *string })
	if !ok {
		return false
	}
	t := typed.Type()
	return t != nil && (*t == "ObjStm" || *t == "XRef")
}

func pdfObjectBody(obj types.Object, src io.ReadSeeker) ([]byte, error) {
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return []byte(obj.PDFString()), nil
	}

	raw, err := rawStream(sd, src)
	if err != nil {
		return nil, err
	}
	sd.Dict.Update("Length", types.Integer(len(raw)))

	body := make([]byte, 0, len(raw)+64)
	body = append(body, sd.Dict.PDFString()...)
	body = append(body, "\nstream\n"...)
	body = append(body, raw...)
	body = append(body, "\nendstream"...)
	return body, nil
}

// rawStream returns the still-encoded stream bytes, reading them from the
// source file when pdfcpu has not loaded them.
func rawStream(sd types.StreamDict, src io.ReadSeeker) ([]byte, error) {
	if sd.Raw != nil {
		return sd.Raw, nil
	}
	if sd.StreamLength == nil {
		return nil, errors.New("stream length unknown")
	}
	raw := make([]byte, *sd.StreamLength)
	if _, err := src.Seek(sd.StreamOffset, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(src, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
