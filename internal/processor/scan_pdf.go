package processor

import (
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func scanPDF(path string) (detailSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(IOError, err)
	}
	defer f.Close()

	pdf, err := readPDF(f)
	if err != nil {
		return nil, errorf(DecodeError, "cannot parse pdf: %w", err)
	}

	set := detailSet{}
	if pdf.Info != nil {
		info, err := pdf.DereferenceDict(*pdf.Info)
		if err != nil {
			return nil, errorf(DecodeError, "cannot read document info: %w", err)
		}
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set.add(k, pdfText(pdf, info[k]))
		}
	}

	if catalog, err := pdf.DereferenceDict(*pdf.Root); err == nil {
		if _, ok := catalog.Find("Metadata"); ok {
			set.add("XMPMetadata", "present")
		}
	}
	return set, nil
}

func pdfText(pdf *model.Context, obj types.Object) string {
	obj, err := pdf.Dereference(obj)
	if err != nil || obj == nil {
		return ""
	}
	switch o := obj.(type) {
	case types.StringLiteral:
		return string(o)
	case types.HexLiteral:
		if b, err := o.Bytes(); err == nil {
			return strings.Trim(string(b), "\x00\xfe\xff")
		}
		return string(o)
	case types.Name:
		return string(o)
	default:
		return obj.String()
	}
}
