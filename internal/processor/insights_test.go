package processor

import "testing"

func TestBuildInsights(t *testing.T) {
	details := []ScanDetail{
		{Category: CategoryAuthor, Values: []string{"Artist=Jane Doe"}},
		{Category: CategoryGPS, Values: []string{
			"GPSLatitudeRef=N",
			"GPSLatitude=[37/1 46/1 30/1]",
			"GPSLongitudeRef=W",
			"GPSLongitude=[122/1 25/1 0/1]",
		}},
		{Category: CategoryDevice, Values: []string{"Make=Apple", "Model=iPhone 15", "BodySerialNumber=X1"}},
		{Category: CategoryTimestamp, Values: []string{"DateTimeOriginal=2024:01:02 03:04:05"}},
	}

	got := map[string][]string{}
	for _, in := range buildInsights(details) {
		got[in.Kind] = append(got[in.Kind], in.Message)
	}

	checks := map[string]string{
		"Identity":   "Names a person: Jane Doe",
		"Location":   "Approx location: 37.77500, -122.41667",
		"Device":     "Device: Apple iPhone 15 (smartphone)",
		"Timeline":   "Captured: 2024-01-02 03:04:05 (timezone unknown)",
		"Identifier": "Unique device identifiers (serial numbers) are present.",
	}
	for kind, want := range checks {
		found := false
		for _, msg := range got[kind] {
			if msg == want {
				found = true
			}
		}
		if !found {
			t.Errorf("insight %s: want %q, got %v", kind, want, got[kind])
		}
	}
}

func TestBuildInsightsEmpty(t *testing.T) {
	if got := buildInsights(nil); got != nil {
		t.Fatalf("expected no insights, got %v", got)
	}
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"Artist":         CategoryAuthor,
		"lastModifiedBy": CategoryAuthor,
		"GPSLatitude":    CategoryGPS,
		"Model":          CategoryDevice,
		"DateTime":       CategoryTimestamp,
		"CreationDate":   CategoryTimestamp,
		"Producer":       CategorySoftware,
		"Title":          CategoryOther,
	}
	for key, want := range tests {
		if got := categorize(key); got != want {
			t.Errorf("categorize(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestBuildInsightsDocumentAndVideoTags(t *testing.T) {
	tests := []struct {
		name    string
		details []ScanDetail
		kind    string
		want    string
	}{
		{
			name:    "pdf creation date",
			details: []ScanDetail{{Category: CategoryTimestamp, Values: []string{"CreationDate=D:20230405060708+02'00'"}}},
			kind:    "Timeline",
			want:    "Captured: 2023-04-05 06:07:08",
		},
		{
			name:    "office created",
			details: []ScanDetail{{Category: CategoryTimestamp, Values: []string{"created=2022-11-30T09:15:00Z"}}},
			kind:    "Timeline",
			want:    "Captured: 2022-11-30 09:15:00 +00:00",
		},
		{
			name:    "quicktime location",
			details: []ScanDetail{{Category: CategoryGPS, Values: []string{"com.apple.quicktime.location.ISO6709=+48.8584+002.2945+035.000/"}}},
			kind:    "Location",
			want:    "Approx location: 48.85840, 2.29450",
		},
		{
			name:    "pdf producer",
			details: []ScanDetail{{Category: CategorySoftware, Values: []string{"Producer=LibreOffice 7.6"}}},
			kind:    "Software",
			want:    "Made with: LibreOffice 7.6",
		},
		{
			name:    "office creator",
			details: []ScanDetail{{Category: CategoryAuthor, Values: []string{"creator=Sam Lee"}}},
			kind:    "Identity",
			want:    "Names a person: Sam Lee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, in := range buildInsights(tt.details) {
				if in.Kind == tt.kind {
					got = append(got, in.Message)
				}
			}
			if len(got) == 0 || got[0] != tt.want {
				t.Fatalf("want %q first, got %v", tt.want, got)
			}
		})
	}
}

func TestParseDMS(t *testing.T) {
	if v, ok := parseDMS("[10/1 30/1]"); !ok || v != 10.5 {
		t.Fatalf("parseDMS degrees+minutes = %v, %v", v, ok)
	}
	if _, ok := parseDMS("[1/0 2/1 3/1]"); ok {
		t.Fatal("expected zero denominator to fail")
	}
	if _, ok := parseDMS(""); ok {
		t.Fatal("expected empty input to fail")
	}
}
