// Package market fetches close-price series from market-data providers.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Interval is a bar width.
type Interval string

const (
	Minute      Interval = "1Min"
	FiveMinutes Interval = "5Min"
	Day         Interval = "1Day"
)

// ParseInterval accepts the bar widths the providers share.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(s); i {
	case Minute, FiveMinutes, Day:
		return i, nil
	}
	return "", fmt.Errorf("unknown interval %q (want 1Min, 5Min or 1Day)", s)
}

func (i Interval) Duration() time.Duration {
	switch i {
	case Minute:
		return time.Minute
	case FiveMinutes:
		return 5 * time.Minute
	}
	return 24 * time.Hour
}

// Window asks for the newest Size bars of the given width.
type Window struct {
	Interval Interval
	Size     int
}

func (w Window) String() string { return fmt.Sprintf("%s x %d", w.Interval, w.Size) }

// Span is how far back a provider must look to find Size bars when markets
// close overnight, over weekends and on holidays.
func (w Window) Span() time.Duration {
	if w.Interval == Day {
		return time.Duration(w.Size) * 48 * time.Hour
	}
	span := time.Duration(w.Size) * w.Interval.Duration() * 4
	if floor := 4 * 24 * time.Hour; span < floor {
		return floor
	}
	return span
}

// SeriesClient fetches price series for a batch of symbols. Each series is
// ordered newest first. Symbols the provider does not know are absent from
// the result.
type SeriesClient interface {
	FetchSeries(ctx context.Context, symbols []types.Symbol, w Window) (map[types.Symbol][]types.PricePoint, error)
}

// DebugLimit caps how much of a response body is logged.
const DebugLimit = 255

// UnparseableResponseError is returned when a provider answers with a body
// that is not the JSON document expected.
type UnparseableResponseError struct {
	Provider string
	Path     string
	Raw      string
	Err      error
}

func (e *UnparseableResponseError) Error() string {
	return fmt.Sprintf("%s %s: unparseable response: %s", e.Provider, e.Path, Truncate(e.Raw, DebugLimit))
}

func (e *UnparseableResponseError) Unwrap() error { return e.Err }

// StatusError is a non-200 reply.
type StatusError struct {
	Provider string
	Path     string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Provider, e.Path, e.Code, http.StatusText(e.Code), Truncate(e.Body, DebugLimit))
}

// SymbolErrors holds the failures of single symbols in a fan-out fetch.
// It is returned together with the series of every symbol that succeeded.
type SymbolErrors map[types.Symbol]error

func (e SymbolErrors) Error() string {
	syms := make([]string, 0, len(e))
	for s := range e {
		syms = append(syms, s.String())
	}
	sort.Strings(syms)
	msgs := make([]string, 0, len(syms))
	for _, s := range syms {
		msgs = append(msgs, fmt.Sprintf("%s: %v", s, e[types.Symbol(s)]))
	}
	return strings.Join(msgs, "; ")
}

func (e SymbolErrors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, err := range e {
		out = append(out, err)
	}
	return out
}

// symbolScoped reports whether err only concerns the symbol that was asked
// for. Transport failures and rejected credentials concern the whole batch.
func symbolScoped(err error) bool {
	var perr *UnparseableResponseError
	if errors.As(err, &perr) {
		return true
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return !authFailure(serr.Code)
	}
	return false
}

func authFailure(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// Truncate cuts s to at most n bytes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func getJSON(ctx context.Context, hc *http.Client, provider, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", provider, err)
	}
	if header != nil {
		req.Header = header.Clone()
	}
	req.Header.Set("Accept", "application/json")

	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: query failed: %w", provider, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", provider, err)
	}
	log.WithFields(log.Fields{"provider": provider, "path": req.URL.Path}).Debug(Truncate(string(body), DebugLimit))

	if res.StatusCode != http.StatusOK {
		return &StatusError{Provider: provider, Path: req.URL.Path, Code: res.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UnparseableResponseError{Provider: provider, Path: req.URL.Path, Raw: string(body), Err: err}
	}
	return nil
}

// newestFirst sorts points by time descending and keeps at most n.
func newestFirst(points []types.PricePoint, n int) []types.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time > points[j].Time })
	if n > 0 && len(points) > n {
		points = points[:n]
	}
	return points
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
