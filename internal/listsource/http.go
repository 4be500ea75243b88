// Package listsource provides the data sources list controllers fetch from.
package listsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tickerflow/tickerdesk/internal/listsync"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// HTTPSource fetches pages from one list endpoint of the HTTP API.
type HTTPSource[T any] struct {
	endpoint *url.URL
	client   *http.Client
}

// NewHTTPSource returns a source for endpoint, e.g. http://host:8080/api/tickers.
// A nil client uses a client with a 15s timeout.
func NewHTTPSource[T any](endpoint string, client *http.Client) (*HTTPSource[T], error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource[T]{endpoint: u, client: client}, nil
}

type envelope[T any] struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Fetch implements listsync.DataSource.
func (s *HTTPSource[T]) Fetch(ctx context.Context, pageSize int, cursor string, filters map[string]string) (listsync.Result[T], error) {
	var res listsync.Result[T]

	u := *s.endpoint
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if cursor != "" {
		q.Set(listsync.CursorParam, cursor)
	}
	u.RawQuery = q.Encode()

	var env envelope[T]
	if err := getJSON(ctx, s.client, &u, &env); err != nil {
		return res, err
	}

	res.Items = env.Results
	if env.Next != nil {
		res.NextReference = *env.Next
	}
	if env.Previous != nil {
		res.PreviousReference = *env.Previous
	}
	return res, nil
}

// getJSON issues a GET for u and decodes a 2xx body into dest. Failures come
// back as listsync.TransportError or listsync.SourceError.
func getJSON(ctx context.Context, client *http.Client, u *url.URL, dest any) error {
	op := "GET " + u.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &listsync.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &listsync.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &listsync.SourceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Status, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &listsync.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage pulls a human message out of an API error body.
func errorMessage(status string, body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error.Message != "":
			return parsed.Error.Message
		case parsed.Detail != "":
			return parsed.Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return status
}
