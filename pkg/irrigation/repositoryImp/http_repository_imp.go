package repositoryImp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"irrigation/entities"
	"irrigation/pkg/irrigation/repository"
)

type httpRepo struct {
	base   string
	client *http.Client
}

// New talks to the REST API under baseURL. No timeout is applied beyond
// what the client carries.
func New(baseURL string, client *http.Client) repository.IrrigationRepository {
	if client == nil {
		client = &http.Client{}
	}
	return &httpRepo{base: strings.TrimRight(baseURL, "/"), client: client}
}

func (r *httpRepo) Create(ctx context.Context, p entities.IrrigationPayload) error {
	return r.do(ctx, http.MethodPost, "/irrigation", &p)
}

func (r *httpRepo) Update(ctx context.Context, id string, p entities.IrrigationPayload) error {
	return r.do(ctx, http.MethodPut, "/irrigation/"+url.PathEscape(id), &p)
}

func (r *httpRepo) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/irrigation/"+url.PathEscape(id), nil)
}

func (r *httpRepo) do(ctx context.Context, method, path string, body *entities.IrrigationPayload) error {
	target := r.base + path
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return &repository.TransportError{Method: method, URL: target, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return &repository.TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &repository.TransportError{Method: method, URL: target, StatusCode: resp.StatusCode}
	}
	return nil
}
