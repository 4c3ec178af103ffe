package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

func collectURLs(args []string) ([]string, error) {
	var urls []string

	// Add URLs from command line arguments
	urls = append(urls, args...)

	// Add URLs from file if specified
	if file != "" {
		fileURLs, err := readURLsFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from file %s: %w", file, err)
		}
		urls = append(urls, fileURLs...)
	}

	// Read URLs from stdin if no args and no file specified
	if len(args) == 0 && file == "" {
		stdinURLs, err := readURLsFromStdin()
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from stdin: %w", err)
		}
		urls = append(urls, stdinURLs...)
	}

	// Clean and validate URLs
	var cleanURLs []string
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if !isValidURL(url) {
			if !quiet {
				fmt.Fprintf(os.Stderr, "Skipping invalid URL: %s\n", url)
			}
			continue
		}
		cleanURLs = append(cleanURLs, url)
	}

	return cleanURLs, nil
}

func readURLsFromFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readURLs(f)
}

func readURLsFromStdin() ([]string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	// Only read when data is being piped in
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, nil
	}
	return readURLs(os.Stdin)
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}

func isValidURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "file://")
}

// urlToFilename converts a URL to a safe filename
func urlToFilename(rawURL string, format string) string {
	name := rawURL
	for _, scheme := range []string{"https://", "http://", "file://"} {
		name = strings.TrimPrefix(name, scheme)
	}

	replacer := strings.NewReplacer(
		"/", "_",
		"?", "_",
		"&", "_",
		"=", "_",
		":", "_",
		"#", "_",
		"%", "_",
	)
	name = strings.TrimRight(replacer.Replace(name), "_")

	if len(name) > 200 {
		name = name[:200]
	}

	switch format {
	case "markdown":
		return name + ".md"
	case "json":
		return name + ".json"
	default:
		return name + ".txt"
	}
}
