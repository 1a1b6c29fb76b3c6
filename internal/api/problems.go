package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eysh-app/eysh/internal/wiretime"
)

// ProblemImage references an image stored by the backend.
type ProblemImage struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// Problem is a bank problem.
type Problem struct {
	ID         string         `json:"id"`
	Subject    string         `json:"subject"`
	Topic      string         `json:"topic"`
	Difficulty string         `json:"difficulty"`
	Text       string         `json:"text"`
	Images     []ProblemImage `json:"images"`
	Source     string         `json:"source,omitempty"`
	SourceURL  string         `json:"source_url,omitempty"`
	SourceRef  string         `json:"source_ref,omitempty"`
	Number     *int           `json:"number,omitempty"`
	Tags       []string       `json:"tags"`
	CreatedAt  wiretime.Time  `json:"created_at"`
}

// ImageIDs lists the problem's image ids in order.
func (p Problem) ImageIDs() []string {
	ids := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		ids = append(ids, img.ID)
	}
	return ids
}

// ProblemFilter narrows a problem listing. Zero fields are omitted.
type ProblemFilter struct {
	Subject    string
	Topic      string
	Difficulty string
	Source     string
	Limit      int
	Skip       int
}

func (f ProblemFilter) params() map[string]string {
	p := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			p[k] = v
		}
	}
	set("subject", f.Subject)
	set("topic", f.Topic)
	set("difficulty", f.Difficulty)
	set("source", f.Source)
	if f.Limit > 0 {
		p["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Skip > 0 {
		p["skip"] = strconv.Itoa(f.Skip)
	}
	return p
}

// Problems lists bank problems, newest first.
func (c *Client) Problems(ctx context.Context, f ProblemFilter) ([]Problem, error) {
	var ps []Problem
	if err := c.getJSON(ctx, "/api/problems", f.params(), &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// Problem returns one problem.
func (c *Client) Problem(ctx context.Context, id string) (*Problem, error) {
	var p Problem
	if err := c.getJSON(ctx, "/api/problems/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// maxImageDownloads bounds concurrent image requests.
const maxImageDownloads = 4

// DownloadedImage is a problem image saved to a local file.
type DownloadedImage struct {
	ID          string
	Path        string
	ContentType string
	Size        int64
}

// Images is a set of downloaded images owned by the caller.
type Images []DownloadedImage

// Remove deletes every downloaded file.
func (imgs Images) Remove() error {
	var errs []error
	for _, img := range imgs {
		if err := os.Remove(img.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DownloadProblemImages fetches images concurrently into temp files under
// dir (the system temp dir when empty). Results keep the order of ids. If
// ctx is cancelled or any download fails, every file written so far is
// removed and the error is returned. Image bytes never go through the
// response cache.
func (c *Client) DownloadProblemImages(ctx context.Context, ids []string, dir string) (Images, error) {
	out := make(Images, len(ids))

	var (
		mu      sync.Mutex
		created []string
	)
	track := func(path string) {
		mu.Lock()
		created = append(created, path)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageDownloads)
	for i, id := range ids {
		g.Go(func() error {
			img, err := c.downloadImage(gctx, id, dir, track)
			if err != nil {
				return fmt.Errorf("image %s: %w", id, err)
			}
			out[i] = img
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for _, p := range created {
			_ = os.Remove(p)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) downloadImage(ctx context.Context, id, dir string, track func(string)) (DownloadedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/problems/images/"+url.PathEscape(id), nil)
	if err != nil {
		return DownloadedImage{}, err
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return DownloadedImage{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return DownloadedImage{}, newError(resp.StatusCode, body)
	}

	contentType := resp.Header.Get("Content-Type")
	f, err := os.CreateTemp(dir, "eysh-image-*"+extensionFor(contentType))
	if err != nil {
		return DownloadedImage{}, err
	}
	track(f.Name())

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return DownloadedImage{}, err
	}
	return DownloadedImage{ID: id, Path: f.Name(), ContentType: contentType, Size: n}, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}
