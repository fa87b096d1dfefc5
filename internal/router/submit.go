package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/kylejryan/nail-studio-portal/internal/api"
	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// Multipart part names. The payload part carries the same JSON a plain
// request would send as its body.
const (
	partPayload = "payload"
	partFile    = "file"
)

// decode reads a submission into v and returns the uploaded file, if the
// request was multipart and had one.
func (rt *Router) decode(req httpx.Request, v any) (*upload.LocalFile, error) {
	mt, params, err := mime.ParseMediaType(httpx.Header(req.Headers, "Content-Type"))
	if err != nil || mt != "multipart/form-data" {
		return nil, httpx.Decode(req, v)
	}
	body, err := httpx.Body(req)
	if err != nil {
		return nil, err
	}

	var file *upload.LocalFile
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, validate.New("body", "malformed multipart body")
		}
		switch part.FormName() {
		case partPayload:
			b, err := io.ReadAll(part)
			if err != nil {
				return nil, validate.New("body", "malformed multipart body")
			}
			if len(b) > 0 {
				if err := json.Unmarshal(b, v); err != nil {
					return nil, validate.New("body", "invalid JSON payload")
				}
			}
		case partFile:
			if file != nil {
				return nil, validate.New("image", "Send one file at a time.")
			}
			if file, err = rt.readFile(part); err != nil {
				return nil, err
			}
		}
		_ = part.Close()
	}
	return file, nil
}

func (rt *Router) readFile(part *multipart.Part) (*upload.LocalFile, error) {
	limit := rt.app.Env.MaxUploadBytes
	r := io.Reader(part)
	if limit > 0 {
		r = io.LimitReader(part, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, validate.New("file", "the file could not be read")
	}
	// A size one past the limit is enough for the pipeline to reject it.
	ct := part.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		ct = s3io.ContentTypeFor(part.FileName())
	}
	return &upload.LocalFile{
		Name:        part.FileName(),
		Size:        int64(len(data)),
		ContentType: ct,
		Body:        bytes.NewReader(data),
	}, nil
}

// image builds the upload request a submission names. has is false when the
// submission names no image at all.
func (rt *Router) image(ctx context.Context, src api.ImageSource, file *upload.LocalFile) (req upload.Request, has bool, err error) {
	req = upload.Request{File: file, Staged: strings.TrimSpace(src.Staged), DeleteOld: src.DeleteOld}
	if id := strings.TrimSpace(src.Picked); id != "" {
		rec, err := rt.app.Library.Pick(ctx, id)
		if errors.Is(err, ports.ErrNotFound) {
			return req, true, validate.New("picked", "That library image is no longer available.")
		}
		if err != nil {
			return req, true, err
		}
		req.Picked = &rec
	}
	return req, file != nil || src.HasImage(), nil
}
