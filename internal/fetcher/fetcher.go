// Package fetcher opens and streams the directory's source documents from
// local files or HTTP.
package fetcher

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// IsRemote reports whether src is an http(s) URL rather than a file path.
func IsRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Open returns a reader for a local path or an http(s) URL. The returned
// reader decodes UTF-8 and drops a leading byte order mark. A nil Fetcher is
// only allowed for local paths.
func Open(ctx context.Context, f Fetcher, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, eris.New("fetcher: empty source")
	}

	var rc io.ReadCloser
	if IsRemote(src) {
		if f == nil {
			return nil, eris.Errorf("fetcher: no http fetcher for %s", src)
		}
		body, err := f.Download(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: download %s", src)
		}
		rc = body
	} else {
		file, err := os.Open(src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		rc = file
	}

	return &bomReader{Reader: SkipBOM(rc), closer: rc}, nil
}

// SkipBOM wraps r so that a leading UTF-8 (or UTF-16) byte order mark is
// consumed before the first read.
func SkipBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

type bomReader struct {
	io.Reader
	closer io.Closer
}

func (b *bomReader) Close() error {
	return b.closer.Close()
}
