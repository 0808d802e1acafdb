package scrape

import "testing"

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"bracketed year", "Old Book [1999]", "1999", true},
		{"modern year", "Published 2021, English", "2021", true},
		{"no year", "No Year Here", "", false},
		{"embedded digits", "ISBN 9781234567890", "", false},
		{"eighteen hundreds ignored", "printed in 1850", "", false},
		{"first match wins", "1995 reprint of 2003 edition", "1995", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYear(tt.text)
			if ok != tt.found || got != tt.want {
				t.Errorf("ExtractYear(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestExtractLanguage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"word and code", "English [en], epub", "English", true},
		{"code discarded", "German [de]", "German", true},
		{"no bracket pair", "English epub", "", false},
		{"three letter code ignored", "English [eng]", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLanguage(tt.text)
			if ok != tt.found || got != tt.want {
				t.Errorf("ExtractLanguage(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestExtractFormat(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"upper case match", "File.PDF", "PDF", true},
		{"epub", "English [en], EPUB, 2.1 MB", "EPUB", true},
		{"lower case not matched", "file.pdf", "", false},
		{"unknown vocabulary", "Unknown format", "", false},
		{"docx before doc", "report DOCX export", "DOCX", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFormat(tt.text)
			if ok != tt.found || got != tt.want {
				t.Errorf("ExtractFormat(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestExtractSize(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"decimal megabytes", "English [en], epub, 4.2 MB", "4.2 MB", true},
		{"whole kilobytes", "800 KB download", "800 KB", true},
		{"gigabytes", "1.5 GB", "1.5 GB", true},
		{"no size", "epub English", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSize(tt.text)
			if ok != tt.found || got != tt.want {
				t.Errorf("ExtractSize(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestExtractAuthor(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		title string
		want  string
		found bool
	}{
		{
			name:  "first qualifying line",
			text:  "The Title\nJane Doe\n2003",
			title: "The Title",
			want:  "Jane Doe",
			found: true,
		},
		{
			name:  "skips blanks and title",
			text:  "The Title\n\n\nSmith, John A.",
			title: "The Title",
			want:  "Smith, John A.",
			found: true,
		},
		{
			name:  "rejects bracketed line",
			text:  "The Title\n[en] English\nAda Lovelace",
			title: "The Title",
			want:  "Ada Lovelace",
			found: true,
		},
		{
			name:  "rejects urls",
			text:  "The Title\nhttp://example.com\n",
			title: "The Title",
			found: false,
		},
		{
			name:  "rejects long lines",
			text:  "The Title\n" + "A scholarly treatise on the migratory patterns of birds\n",
			title: "The Title",
			found: false,
		},
		{
			name:  "rejects digits",
			text:  "The Title\n3rd Edition 2004\n",
			title: "The Title",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAuthor(tt.text, tt.title)
			if ok != tt.found || got != tt.want {
				t.Errorf("ExtractAuthor() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.found)
			}
		})
	}
}
