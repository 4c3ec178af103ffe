package fetcher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePage serves HTML saved to disk or piped on stdin. The source URL drives
// routing, so it can be set to the address the page was saved from.
type FilePage struct {
	*StaticPage
}

// OpenFile reads path ("-" for stdin). An empty sourceURL falls back to a
// file:// URL of the path.
func OpenFile(path, sourceURL string, stdin io.Reader) (*FilePage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxPageBytes))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}

	if sourceURL == "" {
		sourceURL = fileURL(path)
	}
	return &FilePage{StaticPage: NewStaticPage(sourceURL, string(data))}, nil
}

func fileURL(path string) string {
	if path == "-" {
		return "file:///dev/stdin"
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}
