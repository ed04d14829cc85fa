package api

import (
	"bytes"
	"io"
	"mime/multipart"
)

// Form is a multipart request body. The backend cannot read PUT/DELETE
// multipart submissions, so updates go out as POST with a _method override
// field; MethodOverride appends it.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *Form) AddField(name, value string) *Form {
	if f.err != nil {
		return f
	}
	f.err = f.writer.WriteField(name, value)
	return f
}

func (f *Form) AddFile(field, filename string, content io.Reader) *Form {
	if f.err != nil {
		return f
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	if _, err := io.Copy(part, content); err != nil {
		f.err = err
	}
	return f
}

// MethodOverride marks the form as a tunneled PUT/DELETE.
func (f *Form) MethodOverride(method string) *Form {
	return f.AddField("_method", method)
}

func (f *Form) finish() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}
