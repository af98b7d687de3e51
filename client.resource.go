package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// APIPrefix is the versioned root of the library backend.
const APIPrefix = "/api/v1"

// codec encodes and decodes backend payloads.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// ResourceService defines the operations available on one backend resource.
type ResourceService[T any, D any] interface {
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int64, draft D) (T, error)
	Delete(ctx context.Context, id int64) error
}

var _ ResourceService[Author, AuthorDraft] = (*ResourceClient[Author, AuthorDraft])(nil) // ensure ResourceClient implements ResourceService.

// ResourceClient calls the library backend for one resource collection.
// Each call issues exactly one request. There is no retry and no local
// validation of drafts.
type ResourceClient[T any, D any] struct {
	http     *http.Client
	endpoint string
}

// NewResourceClient provides a client for the collection `path` served under baseURL.
func NewResourceClient[T any, D any](hc *http.Client, baseURL, path string) *ResourceClient[T, D] {
	return &ResourceClient[T, D]{
		http:     hc,
		endpoint: strings.TrimRight(baseURL, "/") + APIPrefix + "/" + path,
	}
}

// Endpoint returns the collection url.
func (rc *ResourceClient[T, D]) Endpoint() string {
	return rc.endpoint
}

// List fetches the whole collection.
func (rc *ResourceClient[T, D]) List(ctx context.Context) ([]T, error) {
	items := []T{}
	if err := rc.do(ctx, http.MethodGet, rc.endpoint, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// GetByID fetches a single entity.
func (rc *ResourceClient[T, D]) GetByID(ctx context.Context, id int64) (T, error) {
	var item T
	err := rc.do(ctx, http.MethodGet, rc.itemURL(id), nil, &item)
	return item, err
}

// Create posts a new entity and returns the backend representation.
func (rc *ResourceClient[T, D]) Create(ctx context.Context, draft D) (T, error) {
	var item T
	err := rc.do(ctx, http.MethodPost, rc.endpoint, draft, &item)
	return item, err
}

// Update replaces the entity identified by id. The id is also sent
// inside the body since the backend reads it from there.
func (rc *ResourceClient[T, D]) Update(ctx context.Context, id int64, draft D) (T, error) {
	var item T
	payload, err := withID(id, draft)
	if err != nil {
		return item, &ClientError{Method: http.MethodPut, URL: rc.itemURL(id), Err: err}
	}
	err = rc.do(ctx, http.MethodPut, rc.itemURL(id), payload, &item)
	return item, err
}

// Delete removes the entity identified by id. The acknowledgment body is discarded.
func (rc *ResourceClient[T, D]) Delete(ctx context.Context, id int64) error {
	return rc.do(ctx, http.MethodDelete, rc.itemURL(id), nil, nil)
}

func (rc *ResourceClient[T, D]) itemURL(id int64) string {
	return rc.endpoint + "/" + strconv.FormatInt(id, 10)
}

func (rc *ResourceClient[T, D]) do(ctx context.Context, method, url string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := codec.Marshal(payload)
		if err != nil {
			return &ClientError{Method: method, URL: url, Err: fmt.Errorf("encode request body: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &ClientError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := rc.http.Do(req)
	if err != nil {
		return &ClientError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Method: method, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(method, url, resp, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = codec.Unmarshal(data, out); err != nil {
		return &ClientError{Method: method, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("decode response body: %w", err)}
	}
	return nil
}

// withID returns the JSON object of draft with an `id` member added.
func withID(id int64, draft any) (map[string]jsoniter.RawMessage, error) {
	b, err := codec.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	fields := map[string]jsoniter.RawMessage{}
	if err = codec.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("draft is not a json object: %w", err)
	}
	fields["id"] = jsoniter.RawMessage(strconv.FormatInt(id, 10))
	return fields, nil
}
