package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// tagValues indexes scan details by lower-cased key.
type tagValues map[string][]string

func newTagValues(details []ScanDetail) tagValues {
	tv := make(tagValues)
	for _, d := range details {
		for _, entry := range d.Values {
			key, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			tv[key] = append(tv[key], strings.TrimSpace(value))
		}
	}
	return tv
}

// first returns the first value found under any of keys, in order.
func (tv tagValues) first(keys ...string) string {
	for _, k := range keys {
		if vals := tv[strings.ToLower(k)]; len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return ""
}

func (tv tagValues) hasKeyContaining(sub string) bool {
	for k, vals := range tv {
		if strings.Contains(k, sub) && len(vals) > 0 {
			return true
		}
	}
	return false
}

type insightRule func(tagValues) []ScanInsight

// insightRules run in order; each contributes zero or more notes.
var insightRules = []insightRule{
	identityInsight,
	locationInsight,
	deviceInsight,
	timelineInsight,
	softwareInsight,
	identifierInsight,
}

// buildInsights turns raw scan details into short privacy notes.
func buildInsights(details []ScanDetail) []ScanInsight {
	if len(details) == 0 {
		return nil
	}
	tv := newTagValues(details)

	var insights []ScanInsight
	for _, rule := range insightRules {
		insights = append(insights, rule(tv)...)
	}
	return insights
}

func identityInsight(tv tagValues) []ScanInsight {
	name := tv.first("Author", "Artist", "creator", "lastModifiedBy", "Copyright")
	if name == "" {
		return nil
	}
	return []ScanInsight{{Kind: "Identity", Message: "Names a person: " + name}}
}

func locationInsight(tv tagValues) []ScanInsight {
	lat, lon, ok := exifLocation(tv)
	if !ok {
		lat, lon, ok = parseISO6709(tv.first("location", "com.apple.quicktime.location.ISO6709"))
	}
	if !ok {
		return nil
	}
	return []ScanInsight{
		{Kind: "Location", Message: fmt.Sprintf("Approx location: %.5f, %.5f", lat, lon)},
		{Kind: "Location", Message: "Exact coordinates can reveal home, workplace, or travel patterns."},
	}
}

func exifLocation(tv tagValues) (float64, float64, bool) {
	lat, okLat := parseDMS(tv.first("GPSLatitude"))
	lon, okLon := parseDMS(tv.first("GPSLongitude"))
	if !okLat || !okLon {
		return 0, 0, false
	}
	if tv.first("GPSLatitudeRef") == "S" {
		lat = -lat
	}
	if tv.first("GPSLongitudeRef") == "W" {
		lon = -lon
	}
	return lat, lon, true
}

var iso6709 = regexp.MustCompile(`^([+-]\d+(?:\.\d+)?)([+-]\d+(?:\.\d+)?)`)

// parseISO6709 reads the "+37.7750-122.4167/" form QuickTime and MP4
// containers use for recording location.
func parseISO6709(raw string) (float64, float64, bool) {
	m := iso6709.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseDMS reads an EXIF coordinate such as "[37/1 46/1 30/1]" as decimal
// degrees. Fewer than three components are treated as degrees and minutes.
func parseDMS(raw string) (float64, bool) {
	parts := strings.Fields(strings.Trim(strings.TrimSpace(raw), "[]"))
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	var deg float64
	scale := 1.0
	for _, part := range parts {
		v, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		deg += v / scale
		scale *= 60
	}
	return deg, true
}

func parseRational(s string) (float64, bool) {
	num, den, isFrac := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !isFrac {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func deviceInsight(tv tagValues) []ScanInsight {
	device := strings.TrimSpace(tv.first("Make", "com.apple.quicktime.make") + " " +
		tv.first("Model", "com.apple.quicktime.model"))
	if device == "" {
		device = tv.first("CameraModelName")
	}
	if device == "" {
		return nil
	}

	msg := "Device: " + device
	if class := deviceClass(device); class != "" {
		msg += " (" + class + ")"
	}
	return []ScanInsight{{Kind: "Device", Message: msg}}
}

var deviceClasses = []struct {
	class string
	hints []string
}{
	{"smartphone", []string{"iphone", "pixel", "galaxy", "android"}},
	{"tablet", []string{"ipad", "tablet"}},
	{"action camera", []string{"gopro"}},
	{"drone", []string{"dji"}},
	{"camera", []string{"canon", "nikon", "sony", "fujifilm", "panasonic", "olympus", "leica"}},
}

func deviceClass(device string) string {
	lower := strings.ToLower(device)
	for _, dc := range deviceClasses {
		for _, hint := range dc.hints {
			if strings.Contains(lower, hint) {
				return dc.class
			}
		}
	}
	return ""
}

func timelineInsight(tv tagValues) []ScanInsight {
	raw := tv.first("DateTimeOriginal", "DateTimeDigitized", "DateTime",
		"CreationDate", "created", "creation_time", "ModifyTime")
	if raw == "" {
		return nil
	}
	return []ScanInsight{
		{Kind: "Timeline", Message: "Captured: " + readableTime(raw)},
		{Kind: "Timeline", Message: "Capture timestamps can expose routines and time zones."},
	}
}

var exifTime = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}$`)

// readableTime normalises EXIF, PDF and RFC 3339 timestamps. Values in an
// unknown layout are returned unchanged.
func readableTime(raw string) string {
	switch {
	case exifTime.MatchString(raw):
		return strings.Replace(raw, ":", "-", 2) + " (timezone unknown)"
	case strings.HasPrefix(raw, "D:") && len(raw) >= 16:
		if t, err := time.Parse("20060102150405", raw[2:16]); err == nil {
			return t.Format(time.DateTime)
		}
	default:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.Format("2006-01-02 15:04:05 -07:00")
		}
	}
	return raw
}

func softwareInsight(tv tagValues) []ScanInsight {
	sw := tv.first("Software", "Producer", "Application", "encoder", "Creator Tool")
	if sw == "" {
		return nil
	}
	return []ScanInsight{{Kind: "Software", Message: "Made with: " + sw}}
}

func identifierInsight(tv tagValues) []ScanInsight {
	if !tv.hasKeyContaining("serial") {
		return nil
	}
	return []ScanInsight{{Kind: "Identifier", Message: "Unique device identifiers (serial numbers) are present."}}
}
