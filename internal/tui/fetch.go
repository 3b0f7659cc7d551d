package tui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/pkg/encoding"
)

// FetchDescriptor downloads the descriptor of form id from the sandbox
// server at baseURL.
func FetchDescriptor(ctx context.Context, hc *http.Client, baseURL, id string) (encoding.FormDescriptor, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	target := strings.TrimRight(baseURL, "/") + "/forms/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return encoding.FormDescriptor{}, fmt.Errorf("tui: build descriptor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return encoding.FormDescriptor{}, fmt.Errorf("tui: fetch descriptor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return encoding.FormDescriptor{}, fmt.Errorf("tui: fetch descriptor %s: status %d", id, resp.StatusCode)
	}

	var desc encoding.FormDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return encoding.FormDescriptor{}, fmt.Errorf("tui: decode descriptor: %w", err)
	}
	return desc, nil
}
