package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/storage/object"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/shared/util"
)

// Backend names where a reference points.
const (
	BackendObject = "object"
	BackendInline = "inline"
)

// ErrUploadFailed means neither storage nor inline encoding produced a reference.
var ErrUploadFailed = errors.New("resume upload failed")

// Reference locates a stored resume: a public URL or a data URI.
type Reference struct {
	FileName string
	URL      string
	Backend  string
}

// Uploader stores resumes, falling back to an inline data URI when the
// object store is unavailable.
type Uploader struct {
	Store  object.ObjectStore
	NewKey func(fileName string) string
}

// NewUploader builds an Uploader keyed by random UUIDs.
func NewUploader(store object.ObjectStore) *Uploader {
	return &Uploader{Store: store, NewKey: NewKey}
}

// NewKey derives a collision-free storage key that keeps the original extension.
func NewKey(fileName string) string {
	return uuid.NewString() + util.Extension(fileName)
}

// Upload returns a reference for f. Storage is tried first; on any failure
// the whole file is read again and embedded as a data URI. ok is false only
// when both paths fail.
func (u *Uploader) Upload(ctx context.Context, f File) (Reference, bool) {
	start := time.Now()
	defer func() { metrics.ObserveResumeUploadMs(metrics.SinceMillis(start)) }()

	contentType := contentTypeFor(f)
	name := displayName(f.Name)

	key := u.newKey(f.Name)
	url, err := u.store(ctx, key, contentType, f)
	if err == nil {
		metrics.IncResumeStored()
		telemetry.Info("resume.stored", map[string]any{"key": key, "file_name": name})
		return Reference{FileName: name, URL: url, Backend: BackendObject}, true
	}
	telemetry.Warn("resume.storage_failed", map[string]any{"key": key, "file_name": name, "error": err})

	data, err := readAll(f)
	if err != nil {
		metrics.IncResumeUploadFailed()
		telemetry.Error("resume.inline_failed", map[string]any{"file_name": name, "error": err})
		return Reference{}, false
	}
	metrics.IncResumeFallback()
	telemetry.Info("resume.inlined", map[string]any{"file_name": name, "bytes": len(data)})
	return Reference{FileName: name, URL: EncodeDataURI(contentType, data), Backend: BackendInline}, true
}

func (u *Uploader) newKey(fileName string) string {
	if u.NewKey != nil {
		return u.NewKey(fileName)
	}
	return NewKey(fileName)
}

func (u *Uploader) store(ctx context.Context, key, contentType string, f File) (string, error) {
	if u.Store == nil {
		return "", errors.New("no object store configured")
	}
	if f.Open == nil {
		return "", errors.New("no file content")
	}
	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()

	if _, err := u.Store.Put(ctx, key, contentType, io.LimitReader(body, MaxFileBytes+1)); err != nil {
		return "", err
	}
	return u.Store.PublicURL(key), nil
}

func readAll(f File) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.New("no file content")
	}
	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxFileBytes {
		return nil, fmt.Errorf("resume exceeds %d bytes", MaxFileBytes)
	}
	return data, nil
}

func displayName(name string) string {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "cv" + util.Extension(name)
	}
	return clean
}
