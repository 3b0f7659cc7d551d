// Package loader reads OpenAPI documents from files, an fs.FS or HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

// fetchFunc reads the payload at location. It receives the byte cap so every
// strategy stops reading at the same bound.
type fetchFunc func(ctx context.Context, location string, limit int64) ([]byte, error)

// Loader implements pkgopenapi.Loader with one fetch strategy per source
// kind. Kinds without a strategy fail with pkgopenapi.ErrSourceDisabled.
type Loader struct {
	strategies map[pkgopenapi.SourceKind]fetchFunc
	maxBytes   int64
	logger     zerolog.Logger
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgopenapi.LoaderOptions) *Loader {
	l := &Loader{
		strategies: map[pkgopenapi.SourceKind]fetchFunc{
			pkgopenapi.SourceKindFile: readFile,
		},
		maxBytes: options.MaxDocumentBytes,
		logger:   options.Logger,
	}
	if l.maxBytes <= 0 {
		l.maxBytes = pkgopenapi.DefaultMaxDocumentBytes
	}
	if options.FileSystem != nil {
		l.strategies[pkgopenapi.SourceKindFS] = readFS(options.FileSystem)
	}
	if client := httpClient(options); client != nil {
		l.strategies[pkgopenapi.SourceKindURL] = fetchURL(client, options.RequestTimeout)
	}
	return l
}

func httpClient(options pkgopenapi.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if options.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	}
	return nil
}

// Load fetches a document from src.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, errors.New("openapi loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Document{}, err
	}
	fetch, ok := l.strategies[src.Kind()]
	if !ok {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: %s: %w", src.Kind(), pkgopenapi.ErrSourceDisabled)
	}
	data, err := fetch(ctx, src.Location(), l.maxBytes)
	if err != nil {
		l.logger.Warn().Err(err).Str("source", src.Location()).Msg("openapi document load failed")
		return pkgopenapi.Document{}, err
	}
	l.logger.Debug().
		Str("kind", string(src.Kind())).
		Str("source", src.Location()).
		Int("bytes", len(data)).
		Msg("openapi document loaded")
	return pkgopenapi.NewDocument(src, data)
}
