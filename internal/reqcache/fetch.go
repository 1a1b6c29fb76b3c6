package reqcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetch sends req through doer, serving GET requests from the cache when a
// fresh entry exists. Other methods pass straight through. The key is the
// full request URL plus the Authorization header.
//
// A cache hit replays the stored JSON body with the recorded status and
// Content-Type application/json. On a live 2xx response the body is read,
// restored for the caller, and stored if it is valid JSON.
func (c *Cache) Fetch(ctx context.Context, doer Doer, req *http.Request, opts RequestOptions) (*http.Response, error) {
	req = req.WithContext(ctx)
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !c.enabled() || method != http.MethodGet {
		if c != nil {
			c.metrics.request(resultPassthrough)
		}
		return doer.Do(req)
	}

	key := Key(method, req.URL.String(), nil, req.Header.Get("Authorization"))
	if e := c.lookupKey(ctx, key, opts); e != nil {
		return replay(req, e), nil
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, ok := bufferBody(resp)
		if ok {
			c.write(ctx, key, body, resp.StatusCode)
		} else {
			c.metrics.write(writeSkipped)
		}
	}
	return resp, nil
}

// replay builds a response from a cached entry.
func replay(req *http.Request, e *Entry) *http.Response {
	status := e.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {"application/json"}, "Content-Length": {strconv.Itoa(len(e.Data))}},
		Body:          io.NopCloser(bytes.NewReader(e.Data)),
		ContentLength: int64(len(e.Data)),
		Request:       req,
	}
}

// bufferBody reads the response body into memory and puts an equivalent
// reader back in its place. A failed read is replayed to the caller after the
// bytes that did arrive.
func bufferBody(resp *http.Response) ([]byte, bool) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
		return nil, false
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, true
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
