package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ProgressFunc receives upload progress as a whole percentage in [0,100].
// It is invoked on every change, up to and including 100.
type ProgressFunc func(percent int)

// UploadSound submits a new sound as a multipart form ("audio" file part
// plus "name" field). When onProgress is non-nil the request body is
// routed through a counting reader so byte progress can be observed as
// the transport drains it; with a nil callback the plain path is used.
// Rate-limit rejections carry a RetryAfter read from the response body or
// the Retry-After header.
func (c *Client) UploadSound(ctx context.Context, audio io.Reader, filename, name string, onProgress ProgressFunc) (*Sound, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if err := mw.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("writing name field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing form: %w", err)
	}

	var body io.Reader = &buf
	total := int64(buf.Len())
	if onProgress != nil {
		body = &progressReader{r: body, total: total, onProgress: onProgress, last: -1}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/sounds", nil), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = total

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /sounds: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyError(resp.StatusCode, resp.Header, data, true)
	}

	var out struct {
		Sound Sound `json:"sound"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out.Sound, nil
}

// progressReader reports whole-percent progress as the body is consumed.
type progressReader struct {
	r          io.Reader
	total      int64
	loaded     int64
	last       int
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.loaded += int64(n)
		percent := int(p.loaded * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.onProgress(percent)
		}
	}
	return n, err
}
