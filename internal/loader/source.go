package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/titanous/json5"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/ratelimit"
	"github.com/listenupapp/booktable/internal/store/sqlite"
)

//nolint:gochecknoglobals // Shared decoder configuration
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultHTTPTimeout bounds a single HTTP fetch when no timeout is configured.
const DefaultHTTPTimeout = 10 * time.Second

const storeScheme = "sqlite://"

// Source fetches a books payload.
type Source interface {
	Fetch(ctx context.Context) (domain.Payload, error)
	// String names the source for logs.
	String() string
}

// Options configures the sources built by NewSource.
type Options struct {
	// Limiter throttles HTTP fetches per upstream host. Optional.
	Limiter     *ratelimit.KeyedRateLimiter
	HTTPTimeout time.Duration
}

// NewSource picks a source for location:
//
//	http://… or https://…  HTTPSource
//	sqlite://path          StoreSource (the database is opened here)
//	anything else          FileSource
//
// Sources owning resources implement io.Closer.
func NewSource(location string, opts Options) (Source, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, domainerrors.Validation("book source is empty")
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if _, err := url.ParseRequestURI(location); err != nil {
			return nil, domainerrors.Validationf("invalid source url %q", location)
		}
		return NewHTTPSource(location, opts.HTTPTimeout, opts.Limiter), nil
	case strings.HasPrefix(location, storeScheme):
		path := strings.TrimPrefix(location, storeScheme)
		if path == "" {
			return nil, domainerrors.Validation("sqlite source needs a path")
		}
		st, err := sqlite.Open(path, nil)
		if err != nil {
			return nil, domainerrors.Wrapf(err, domainerrors.CodeSourceUnavailable, "open %s", path)
		}
		return &StoreSource{store: st, closer: st, name: location}, nil
	default:
		return &FileSource{Path: location}, nil
	}
}

// FileSource reads a payload from disk. Files ending in .json5 may use
// comments, trailing commas and unquoted keys.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (domain.Payload, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payload{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.Payload{}, domainerrors.Wrapf(err, domainerrors.CodeSourceUnavailable, "read %s", s.Path)
	}
	return decodePayload(data, isJSON5(s.Path))
}

func (s *FileSource) String() string { return s.Path }

// HTTPSource fetches a payload with GET. Any non-2xx response is a failed fetch.
type HTTPSource struct {
	client  *resty.Client
	limiter *ratelimit.KeyedRateLimiter
	URL     string
}

// NewHTTPSource creates an HTTP source. A zero timeout uses DefaultHTTPTimeout.
func NewHTTPSource(rawURL string, timeout time.Duration, limiter *ratelimit.KeyedRateLimiter) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &HTTPSource{client: client, limiter: limiter, URL: rawURL}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (domain.Payload, error) {
	if s.limiter != nil {
		host := s.URL
		if u, err := url.Parse(s.URL); err == nil {
			host = u.Host
		}
		if err := s.limiter.Wait(ctx, host); err != nil {
			return domain.Payload{}, domainerrors.Wrap(err, domainerrors.CodeSourceUnavailable, "rate limited")
		}
	}

	res, err := s.client.R().
		SetContext(ctx).
		Get(s.URL)
	if err != nil {
		return domain.Payload{}, domainerrors.Wrapf(err, domainerrors.CodeSourceUnavailable, "get %s", s.URL)
	}
	if !res.IsSuccess() {
		return domain.Payload{}, domainerrors.SourceUnavailable(fmt.Sprintf("get %s: %s", s.URL, res.Status())).
			WithDetails(map[string]int{"status": res.StatusCode()})
	}

	lenient := isJSON5(res.Request.URL) || strings.Contains(res.Header().Get("Content-Type"), "json5")
	return decodePayload(res.Body(), lenient)
}

func (s *HTTPSource) String() string { return s.URL }

// PayloadStore is the part of the SQLite store a StoreSource reads.
type PayloadStore interface {
	Payload(ctx context.Context) (domain.Payload, error)
}

// StoreSource serves a catalog previously imported into SQLite.
type StoreSource struct {
	store  PayloadStore
	closer interface{ Close() error }
	name   string
}

// NewStoreSource wraps an open store. The caller keeps ownership of it.
func NewStoreSource(store PayloadStore, name string) *StoreSource {
	return &StoreSource{store: store, name: name}
}

// Fetch implements Source.
func (s *StoreSource) Fetch(ctx context.Context) (domain.Payload, error) {
	payload, err := s.store.Payload(ctx)
	if err != nil {
		return domain.Payload{}, domainerrors.Wrapf(err, domainerrors.CodeSourceUnavailable, "read catalog %s", s.name)
	}
	return payload, nil
}

func (s *StoreSource) String() string { return s.name }

// Close closes the store when NewSource opened it.
func (s *StoreSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// decodePayload decodes the top-level document. Only a document that is not
// an object fails here; what books holds is checked by the controller.
func decodePayload(data []byte, lenient bool) (domain.Payload, error) {
	if lenient {
		// Numbers stay as their source text so "4.50" displays as written.
		dec := json5.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return domain.Payload{}, domainerrors.Wrap(err, domainerrors.CodeMalformedPayload, "decode json5 payload")
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return domain.Payload{}, domainerrors.Wrap(err, domainerrors.CodeMalformedPayload, "normalize json5 payload")
		}
		data = normalized
	}

	var payload domain.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.Payload{}, domainerrors.Wrap(err, domainerrors.CodeMalformedPayload, "decode payload")
	}
	return payload, nil
}

func isJSON5(path string) bool {
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		path = u.Path
	}
	return strings.EqualFold(filepath.Ext(path), ".json5")
}
