package scrape

import (
	"strings"
	"testing"
)

func TestDownloadFilename(t *testing.T) {
	longTitle := strings.Repeat("y", 60)

	tests := []struct {
		name string
		book Book
		want string
	}{
		{
			name: "full metadata",
			book: Book{Title: "Dune", Author: "Frank Herbert", Format: "EPUB"},
			want: "Dune - Frank Herbert.epub",
		},
		{
			name: "missing author",
			book: Book{Title: "Anonymous Work", Format: "PDF"},
			want: "Anonymous Work.pdf",
		},
		{
			name: "missing format defaults to pdf",
			book: Book{Title: "No Format", Author: "A. B."},
			want: "No Format - A. B..pdf",
		},
		{
			name: "long title truncated to 50 runes",
			book: Book{Title: longTitle, Format: "TXT"},
			want: strings.Repeat("y", 50) + ".txt",
		},
		{
			name: "path separators sanitized",
			book: Book{Title: "TCP/IP Illustrated", Author: "W. Richard Stevens", Format: "PDF"},
			want: "TCP_IP Illustrated - W. Richard Stevens.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.book.DownloadFilename(); got != tt.want {
				t.Errorf("DownloadFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
