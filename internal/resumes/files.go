package resumes

import (
	"io"
	"mime/multipart"
	"strings"

	"recruit-backend/internal/shared/util"
)

// MaxFileBytes bounds an uploaded resume.
const MaxFileBytes = 10 << 20

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// File is an uploaded resume not yet stored anywhere.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a form file.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Accepted reports whether name has a resume extension we take.
func Accepted(name string) bool {
	_, ok := contentTypes[util.Extension(name)]
	return ok
}

// AcceptedExtensions lists the extensions Accepted allows.
func AcceptedExtensions() []string {
	return []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}
}

// contentTypeFor prefers the extension mapping over the client-supplied header.
func contentTypeFor(f File) string {
	if ct, ok := contentTypes[util.Extension(f.Name)]; ok {
		return ct
	}
	if ct := strings.TrimSpace(f.ContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
