package netx

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultipartFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o600))

	body, ct, err := MultipartFile("files", path)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	r := multipart.NewReader(body, params["boundary"])
	part, err := r.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "files", part.FormName())
	assert.Equal(t, "me.png", part.FileName())

	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))
}

func TestMultipartFile_Missing(t *testing.T) {
	_, _, err := MultipartFile("files", filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://localhost:1337", "/uploads/a.png", "http://localhost:1337/uploads/a.png"},
		{"http://localhost:1337/", "/uploads/a.png", "http://localhost:1337/uploads/a.png"},
		{"http://localhost:1337", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"http://localhost:1337", "", ""},
		{"http://localhost:1337/cms", "uploads/a.png", "http://localhost:1337/cms/uploads/a.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinURL(tt.base, tt.ref), tt.ref)
	}
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://h:1/api/auth/local", Endpoint("http://h:1/", "/api/auth/local"))
	assert.Equal(t, "http://h:1/api/users/7", Endpoint("http://h:1", "api", "users", "7"))
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "HTTP 502: Bad Gateway", StatusText(502, "502 Bad Gateway"))
	assert.Equal(t, "HTTP 500: Internal Server Error", StatusText(500, "Internal Server Error"))
}
