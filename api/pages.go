package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Page is one page of a list endpoint. Total is the size of the whole result
// set when the backend paginates, and len(Items) otherwise.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// getPage fetches path and normalises the paginated envelope (results or
// items, with count or total) and a bare array into a Page.
func getPage[T any](ctx context.Context, r requester, path string, query url.Values) (Page[T], error) {
	var raw json.RawMessage
	if err := r.doJSON(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return Page[T]{}, err
	}
	return decodePage[T](raw)
}

func decodePage[T any](raw json.RawMessage) (Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Page[T]{Items: []T{}}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return Page[T]{}, fmt.Errorf("failed to decode list: %w", err)
		}
		return Page[T]{Items: items, Total: len(items)}, nil
	}

	var envelope struct {
		Results []T  `json:"results"`
		Items   []T  `json:"items"`
		Count   *int `json:"count"`
		Total   *int `json:"total"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Page[T]{}, fmt.Errorf("failed to decode page: %w", err)
	}

	page := Page[T]{Items: envelope.Results}
	if page.Items == nil {
		page.Items = envelope.Items
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	switch {
	case envelope.Count != nil:
		page.Total = *envelope.Count
	case envelope.Total != nil:
		page.Total = *envelope.Total
	default:
		page.Total = len(page.Items)
	}
	return page, nil
}

// Zero values are left out of the query string.

func setInt(query url.Values, key string, v int) {
	if v > 0 {
		query.Set(key, strconv.Itoa(v))
	}
}

func setString(query url.Values, key, v string) {
	if v != "" {
		query.Set(key, v)
	}
}

func setDate(query url.Values, key string, t time.Time) {
	if !t.IsZero() {
		query.Set(key, t.Format(DateLayout))
	}
}

// FlexString holds a value the backend serializes either as a JSON string or
// as a number, such as report ids and month labels.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a string or a number, got %s", data)
		}
		*s = FlexString(n.String())
		return nil
	}
}

func (s FlexString) String() string {
	return string(s)
}
