package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"

	"recruit-backend/internal/shared/storage/object"
)

var (
	// ErrExternal means the reference points somewhere we cannot read
	// from; callers redirect to it instead.
	ErrExternal    = errors.New("resume stored outside this service")
	ErrUnsupported = errors.New("unsupported resume format")
)

// Content is a resume loaded back from its reference.
type Content struct {
	ContentType string
	Data        []byte
}

// Load reads the bytes behind a reference produced by Upload.
func (u *Uploader) Load(ctx context.Context, ref string, fileName string) (Content, error) {
	if ref == "" {
		return Content{}, object.ErrNotFound
	}
	if IsDataURI(ref) {
		ct, data, err := DecodeDataURI(ref)
		if err != nil {
			return Content{}, err
		}
		return Content{ContentType: ct, Data: data}, nil
	}
	if u.Store == nil {
		return Content{}, ErrExternal
	}
	key, ok := u.Store.KeyFromURL(ref)
	if !ok {
		return Content{}, ErrExternal
	}

	body, err := u.Store.Open(ctx, key)
	if err != nil {
		return Content{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxFileBytes+1))
	if err != nil {
		return Content{}, fmt.Errorf("read resume key=%s: %w", key, err)
	}
	return Content{ContentType: contentTypeFor(File{Name: fileName}), Data: data}, nil
}
