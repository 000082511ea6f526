package uploads

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound is returned when no stored blob matches a reference.
var ErrNotFound = errors.New("upload not found")

// Stored blobs are named "<hexPrefix>_<originalBasename>"; prefixes of 13
// and 16 hex characters both occur, optionally followed by "-" or "_".
var reHexPrefix = regexp.MustCompile(`^([0-9a-f]{16}|[0-9a-f]{13})[-_]?`)

// Resolver locates uploaded playlist blobs on disk from loosely-specified
// references: a bare name, a relative name, or a full URL, with or without
// the random hex prefix the upload handler prepends.
type Resolver struct {
	Dir string
}

// Resolve returns the bytes of the blob the reference points at.
//
// Matching is fuzzy: the basename is taken (from the URL path when the
// reference parses as a URL), the hex prefix stripped, and the directory
// searched for "*_<base>"; an exact basename match is the fallback. When
// several blobs match, the most recently modified one wins.
func (r Resolver) Resolve(reference string) ([]byte, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrNotFound, r.Dir, err)
	}

	full := BaseName(reference)
	base := reHexPrefix.ReplaceAllString(full, "")

	matches, _ := filepath.Glob(filepath.Join(r.Dir, "*_"+base))
	if len(matches) == 0 {
		exact := filepath.Join(r.Dir, full)
		if _, err := os.Stat(exact); err == nil {
			matches = []string{exact}
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no blob for %q (base %q)", ErrNotFound, reference, base)
	}

	content, err := os.ReadFile(newestOf(matches))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrNotFound, err)
	}
	return content, nil
}

// BaseName reduces a stored reference to its file basename, taking the URL
// path component first when the reference is a URL.
func BaseName(reference string) string {
	name := strings.TrimSpace(reference)
	if u, err := url.Parse(name); err == nil && u.IsAbs() && u.Host != "" {
		name = u.Path
	}
	return filepath.Base(name)
}

// FileURL builds the public download URL for a stored reference. Empty
// references map to an empty URL, mirroring how package rows omit files.
func FileURL(baseURL, reference string) string {
	if reference == "" {
		return ""
	}
	return baseURL + "?file_name=" + url.QueryEscape(BaseName(reference))
}

// newestOf picks the candidate with the most recent modification time.
// Glob order is lexical, which is meaningless for hex-prefixed names, so
// recency is the documented tie-break.
func newestOf(paths []string) string {
	best := paths[0]
	bestInfo, err := os.Stat(best)
	if err != nil {
		return best
	}
	for _, p := range paths[1:] {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(bestInfo.ModTime()) {
			best, bestInfo = p, info
		}
	}
	return best
}
