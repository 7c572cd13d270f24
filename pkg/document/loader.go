package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// Load reads a document from a local file path or an HTTP(S) URL
func Load(ctx context.Context, input string) (*Node, error) {
	data, err := ReadSource(ctx, input)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return doc, nil
}

// ReadSource returns the raw bytes behind input, fetching http(s) URLs and reading
// anything else from the filesystem
func ReadSource(ctx context.Context, input string) ([]byte, error) {
	if IsURL(input) {
		return fetch(ctx, input)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// IsURL reports whether input looks like an http(s) URL
func IsURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func fetch(ctx context.Context, input string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch document %s: unexpected status %s", input, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return data, nil
}
