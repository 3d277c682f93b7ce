package processor

import (
	"fmt"
	"os"
	"strings"

	"metascrub/pkg/filekind"
)

// Categories used to group scan details.
const (
	CategoryAuthor    = "Author"
	CategoryGPS       = "GPS"
	CategoryDevice    = "Device Model"
	CategoryTimestamp = "Timestamp"
	CategorySoftware  = "Software"
	CategoryOther     = "Other"
)

var categoryOrder = []string{
	CategoryAuthor,
	CategoryGPS,
	CategoryDevice,
	CategoryTimestamp,
	CategorySoftware,
	CategoryOther,
}

// Inspect reports the metadata a file carries without modifying it.
func (p *Processor) Inspect(path string) (ScanReport, error) {
	kind := filekind.Classify(path)
	report := ScanReport{Path: path, Kind: kind}

	var (
		set detailSet
		err error
	)
	switch kind {
	case filekind.RasterImage:
		set, err = scanImage(path)
	case filekind.PDFDocument:
		set, err = scanPDF(path)
	case filekind.WordDocument, filekind.Presentation:
		set, err = scanPackage(path)
	case filekind.Spreadsheet:
		set, err = scanWorkbook(path)
	case filekind.Video:
		set, err = p.scanVideo(path)
	default:
		return report, newError(UnsupportedFormat, ErrUnsupported)
	}
	if err != nil {
		return report, asError(err)
	}

	report.Details = set.details()
	report.Insights = buildInsights(report.Details)
	if sig, err := filekind.SniffFile(path); err == nil && sig != filekind.SigUnknown && !sig.Matches(kind) {
		report.Insights = append(report.Insights, ScanInsight{
			Kind:    "Format",
			Message: fmt.Sprintf("Named as %s but the content looks like %s.", kind, sig),
		})
	}
	return report, nil
}

func scanImage(path string) (detailSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(IOError, err)
	}
	defer f.Close()

	sig, err := filekind.SniffReader(f)
	if err != nil {
		return nil, errorf(DecodeError, "cannot read image header: %w", err)
	}

	switch sig {
	case filekind.SigJPEG:
		set, err := analyzeExif(f)
		if err != nil {
			return nil, errorf(DecodeError, "cannot read EXIF: %w", err)
		}
		return set, nil
	case filekind.SigPNG:
		set, err := scanPNGMetadata(f)
		if err != nil {
			return nil, errorf(DecodeError, "cannot read PNG chunks: %w", err)
		}
		return set, nil
	default:
		return nil, errorf(DecodeError, "content is %s, not an image", sig)
	}
}

// detailSet accumulates "key=value" entries per category.
type detailSet map[string][]string

func (d detailSet) add(key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	cat := categorize(key)
	d[cat] = append(d[cat], key+"="+value)
}

func (d detailSet) details() []ScanDetail {
	var out []ScanDetail
	for _, cat := range categoryOrder {
		if vals := d[cat]; len(vals) > 0 {
			out = append(out, ScanDetail{Category: cat, Values: vals})
		}
	}
	return out
}

func categorize(key string) string {
	lower := strings.ToLower(key)
	switch {
	case containsAny(lower, "software", "producer", "application", "tool", "encoder", "appversion"):
		return CategorySoftware
	case containsAny(lower, "artist", "author", "creator", "copyright", "lastmodifiedby", "owner", "company", "manager"):
		return CategoryAuthor
	case containsAny(lower, "gps", "latitude", "longitude", "location"):
		return CategoryGPS
	case containsAny(lower, "make", "model", "serial", "lens"):
		return CategoryDevice
	case containsAny(lower, "date", "time", "created", "modified"):
		return CategoryTimestamp
	default:
		return CategoryOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
