package processor

import (
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// analyzeExif collects the EXIF tags of the first EXIF block in rs.
func analyzeExif(rs io.ReadSeeker) (detailSet, error) {
	set := detailSet{}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return set, err
	}

	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if err != nil {
		if isNoExif(err) {
			return set, nil
		}
		return set, err
	}
	return set, analyzeExifBlock(set, raw)
}

// analyzeExifBlock parses a raw EXIF payload such as a PNG eXIf chunk.
func analyzeExifBlock(set detailSet, data []byte) error {
	tags, _, err := exif.GetFlatExifData(data, nil)
	if err != nil {
		if isNoExif(err) {
			return nil
		}
		return err
	}
	addExifTags(set, tags)
	return nil
}

func addExifTags(set detailSet, tags []exif.ExifTag) {
	for _, tag := range tags {
		name := tag.TagName
		if strings.Contains(tag.IfdPath, "GPS") && !strings.HasPrefix(name, "GPS") {
			name = "GPS" + name
		}
		set.add(name, tag.Formatted)
	}
}

func isNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
