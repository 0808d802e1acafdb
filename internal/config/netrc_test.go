package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeNetrc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netrc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseNetrc(t *testing.T) {
	path := writeNetrc(t, `
# book mirrors
machine ftp.libgen.example login reader password secret
machine mirror.example
  login anon
  password guest

default login anonymous password sahaf@example.com
`)

	netrc, err := ParseNetrc(path)
	if err != nil {
		t.Fatalf("ParseNetrc() error = %v", err)
	}

	entry := netrc.FindEntry("ftp.libgen.example")
	if entry == nil {
		t.Fatal("FindEntry() = nil for declared machine")
	}
	if entry.Login != "reader" || entry.Password != "secret" {
		t.Errorf("entry = %+v, want reader/secret", entry)
	}

	// Multi-line entries work too.
	if e := netrc.FindEntry("mirror.example"); e == nil || e.Login != "anon" {
		t.Errorf("multi-line entry = %+v, want anon login", e)
	}

	// Unknown hosts fall back to the default entry.
	if e := netrc.FindEntry("other.example"); e == nil || e.Login != "anonymous" {
		t.Errorf("default entry = %+v, want anonymous login", e)
	}
}

func TestParseNetrcQuoted(t *testing.T) {
	path := writeNetrc(t, `machine m.example login "user name" password 'p w'`)

	netrc, err := ParseNetrc(path)
	if err != nil {
		t.Fatalf("ParseNetrc() error = %v", err)
	}

	entry := netrc.FindEntry("m.example")
	if entry == nil || entry.Login != "user name" || entry.Password != "p w" {
		t.Errorf("entry = %+v, want quoted values preserved", entry)
	}
}

func TestParseNetrcMacdef(t *testing.T) {
	path := writeNetrc(t, `machine m.example login a password b
macdef init
cd /books
get latest

machine n.example login c password d
`)

	netrc, err := ParseNetrc(path)
	if err != nil {
		t.Fatalf("ParseNetrc() error = %v", err)
	}

	if e := netrc.FindEntry("n.example"); e == nil || e.Login != "c" {
		t.Errorf("entry after macdef = %+v, want it parsed", e)
	}
}

func TestGetCredentials(t *testing.T) {
	path := writeNetrc(t, `machine ftp.mirror.example login reader password secret`)

	netrc, err := ParseNetrc(path)
	if err != nil {
		t.Fatalf("ParseNetrc() error = %v", err)
	}

	login, password, found := netrc.GetCredentials("ftp://ftp.mirror.example/books/x.epub")
	if !found {
		t.Fatal("GetCredentials() found = false")
	}
	if login != "reader" || password != "secret" {
		t.Errorf("credentials = %q/%q, want reader/secret", login, password)
	}
}

func TestGetCredentialsNil(t *testing.T) {
	var netrc *Netrc

	if _, _, found := netrc.GetCredentials("ftp://x.example/f"); found {
		t.Error("nil netrc GetCredentials() found = true")
	}
	if netrc.FindEntry("x.example") != nil {
		t.Error("nil netrc FindEntry() != nil")
	}
}
