package view

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxFooterBytes = 1 << 20

// LoadFooter reads the shared footer fragment from a file path or an
// http(s) URL. The content is trusted markup and is emitted verbatim.
func LoadFooter(ctx context.Context, source string, client *http.Client) (template.HTML, error) {
	if source == "" {
		return "", nil
	}

	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("failed to read footer: %w", err)
		}
		return template.HTML(data), nil
	}

	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build footer request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch footer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch footer: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFooterBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read footer body: %w", err)
	}
	return template.HTML(data), nil
}
