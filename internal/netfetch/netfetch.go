// Package netfetch is the allowlisted network capability (spec section 6).
// The shell keeps a Fetcher on its State; no curl or wget command is
// registered and no command calls the Fetcher. It never dials sockets itself in
// this reference implementation unless a real Fetcher is injected; the
// default Fetcher always denies, matching the "no network except through
// an explicit allowlist" scope rule.
package netfetch

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Response is the result of a fetch.
type Response struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// Fetcher performs an allowlisted HTTP fetch.
type Fetcher interface {
	Fetch(url string, method string, headers map[string]string, body []byte) (Response, error)
}

// ErrDenied is returned when a URL does not match any allowlist prefix.
type ErrDenied struct{ URL string }

func (e *ErrDenied) Error() string {
	return fmt.Sprintf("network fetch denied (not in allowlist): %s", e.URL)
}

// AllowlistFetcher only permits URLs with one of Prefixes as a literal
// prefix, then delegates to an *http.Client.
type AllowlistFetcher struct {
	Prefixes []string
	Client   *http.Client
}

// NewAllowlistFetcher builds a fetcher restricted to the given URL prefixes.
func NewAllowlistFetcher(prefixes []string) *AllowlistFetcher {
	return &AllowlistFetcher{
		Prefixes: prefixes,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *AllowlistFetcher) allowed(url string) bool {
	for _, p := range a.Prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

func (a *AllowlistFetcher) Fetch(url, method string, headers map[string]string, body []byte) (Response, error) {
	if !a.allowed(url) {
		return Response{}, &ErrDenied{URL: url}
	}
	if method == "" {
		method = http.MethodGet
	}
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return Response{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

// DenyAllFetcher is the zero-configuration default: every fetch is denied.
type DenyAllFetcher struct{}

func (DenyAllFetcher) Fetch(url, method string, headers map[string]string, body []byte) (Response, error) {
	return Response{}, &ErrDenied{URL: url}
}
