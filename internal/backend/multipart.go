package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// multipartForm assembles the profile-update form body.
type multipartForm struct {
	buf         *bytes.Buffer
	contentType string
}

func (f *multipartForm) build(params UpdateUserParams) error {
	writer := multipart.NewWriter(f.buf)

	if err := writer.WriteField("username", params.Username); err != nil {
		return fmt.Errorf("write username field: %w", err)
	}
	if params.Password != "" {
		if err := writer.WriteField("password", params.Password); err != nil {
			return fmt.Errorf("write password field: %w", err)
		}
	}
	if params.Avatar != nil {
		part, err := writer.CreateFormFile("avatar", params.Avatar.Filename)
		if err != nil {
			return fmt.Errorf("create avatar part: %w", err)
		}
		if _, err := io.Copy(part, params.Avatar.Content); err != nil {
			return fmt.Errorf("copy avatar content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}
	f.contentType = writer.FormDataContentType()
	return nil
}
