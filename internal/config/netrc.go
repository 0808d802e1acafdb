package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NetrcEntry holds credentials for one machine. FTP mirrors that
// require a login pick these up automatically.
type NetrcEntry struct {
	Machine  string
	Login    string
	Password string
}

// Netrc is a parsed netrc file.
type Netrc struct {
	entries map[string]*NetrcEntry
	Default *NetrcEntry
}

// NetrcPath returns the conventional netrc location for the OS.
func NetrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "_netrc")
	}
	return filepath.Join(home, ".netrc")
}

// ParseNetrc parses the netrc file at path.
func ParseNetrc(path string) (*Netrc, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening netrc file: %w", err)
	}
	defer file.Close()

	netrc := &Netrc{
		entries: make(map[string]*NetrcEntry),
	}

	var current *NetrcEntry
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := tokenizeLine(line)
		for i := 0; i < len(tokens); i++ {
			switch strings.ToLower(tokens[i]) {
			case "machine":
				if i+1 < len(tokens) {
					i++
					current = &NetrcEntry{Machine: tokens[i]}
					netrc.entries[current.Machine] = current
				}
			case "default":
				current = &NetrcEntry{}
				netrc.Default = current
			case "login":
				if current != nil && i+1 < len(tokens) {
					i++
					current.Login = tokens[i]
				}
			case "password":
				if current != nil && i+1 < len(tokens) {
					i++
					current.Password = tokens[i]
				}
			case "macdef":
				// Macro definitions run until a blank line; skip them.
				for scanner.Scan() {
					if strings.TrimSpace(scanner.Text()) == "" {
						break
					}
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netrc file: %w", err)
	}

	return netrc, nil
}

// tokenizeLine splits a netrc line into tokens, honoring quotes.
func tokenizeLine(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if inQuote {
			if ch == quoteChar {
				inQuote = false
				tokens = append(tokens, current.String())
				current.Reset()
			} else {
				current.WriteByte(ch)
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inQuote = true
			quoteChar = ch
		case ' ', '\t':
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// LoadNetrc parses the netrc file at its conventional location.
func LoadNetrc() (*Netrc, error) {
	path := NetrcPath()
	if path == "" {
		return nil, fmt.Errorf("cannot determine netrc path")
	}
	return ParseNetrc(path)
}

// FindEntry returns the entry for host, falling back to the default
// entry when no machine matches.
func (n *Netrc) FindEntry(host string) *NetrcEntry {
	if n == nil {
		return nil
	}

	if entry, ok := n.entries[host]; ok {
		return entry
	}
	if entry, ok := n.entries[strings.ToLower(host)]; ok {
		return entry
	}
	return n.Default
}

// GetCredentials returns the login and password for a URL's host.
func (n *Netrc) GetCredentials(rawURL string) (login, password string, found bool) {
	if n == nil {
		return "", "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}

	entry := n.FindEntry(parsed.Hostname())
	if entry == nil {
		return "", "", false
	}
	return entry.Login, entry.Password, true
}
