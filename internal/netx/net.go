// Package netx has small HTTP helpers shared by the client transport.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// MultipartFile builds a multipart/form-data body holding the file at path
// under the given field name. It returns the body and its Content-Type.
func MultipartFile(field, path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// JoinURL makes a media path absolute by prefixing base. Refs that are
// already absolute http(s) URLs are returned unchanged; an empty ref yields "".
func JoinURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return Endpoint(base, ref)
}

// Endpoint appends path segments to base without producing double slashes.
func Endpoint(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}

// StatusText formats the generic "HTTP <code>: <text>" fallback message.
func StatusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprint(code)))
	return fmt.Sprintf("HTTP %d: %s", code, text)
}
