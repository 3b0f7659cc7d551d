package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

func readFile(ctx context.Context, location string, limit int64) ([]byte, error) {
	if location == "" {
		return nil, errors.New("openapi loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return readLimited(f, location, limit)
}

func readFS(filesystem fs.FS) fetchFunc {
	return func(ctx context.Context, location string, limit int64) ([]byte, error) {
		name := path.Clean(strings.TrimPrefix(strings.TrimSpace(location), "/"))
		if name == "" || name == "." {
			return nil, errors.New("openapi loader: fs path is required")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := filesystem.Open(name)
		if err != nil {
			return nil, fmt.Errorf("openapi loader: read %s: %w", name, err)
		}
		defer func() {
			_ = f.Close()
		}()
		return readLimited(f, name, limit)
	}
}

func fetchURL(client *http.Client, timeout time.Duration) fetchFunc {
	return func(ctx context.Context, location string, limit int64) ([]byte, error) {
		if location == "" {
			return nil, errors.New("openapi loader: url is required")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, fmt.Errorf("openapi loader: %w", err)
		}
		req.Header.Set("Accept", "application/yaml, application/json;q=0.9, */*;q=0.5")
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("openapi loader: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("openapi loader: %s: unexpected status %s", location, resp.Status)
		}
		return readLimited(resp.Body, location, limit)
	}
}

func readLimited(r io.Reader, location string, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("openapi loader: read %s: %w", location, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("openapi loader: %s: %w (limit %d bytes)", location, pkgopenapi.ErrDocumentTooLarge, limit)
	}
	return data, nil
}
