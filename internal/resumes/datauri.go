package resumes

import (
	"encoding/base64"
	"errors"
	"strings"
)

const dataURIPrefix = "data:"

var ErrInvalidDataURI = errors.New("invalid data uri")

// EncodeDataURI returns data as a base64 data URI. An empty content type
// becomes application/octet-stream.
func EncodeDataURI(contentType string, data []byte) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	return dataURIPrefix + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether ref is an inline resume rather than a URL.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, dataURIPrefix)
}

// DecodeDataURI parses a base64 data URI produced by EncodeDataURI.
func DecodeDataURI(ref string) (contentType string, data []byte, err error) {
	if !IsDataURI(ref) {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, dataURIPrefix), ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	ct, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrInvalidDataURI
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURI
	}
	if ct == "" {
		ct = "text/plain;charset=US-ASCII"
	}
	return ct, data, nil
}
