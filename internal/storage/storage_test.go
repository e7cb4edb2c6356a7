package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadedAt = time.Date(2026, 3, 1, 10, 30, 45, 0, time.UTC)

func TestFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mug.png", "2026-03-01_10-30_mug.png"},
		{"blue   coffee\tmug.png", "2026-03-01_10-30_blue coffee mug.png"},
		{"../../etc/passwd", "2026-03-01_10-30_passwd"},
		{`C:\photos\mug.jpg`, "2026-03-01_10-30_mug.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(uploadedAt, tt.in))
		})
	}
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestLocal_SaveRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir)
	require.NoError(t, err)
	l.now = func() time.Time { return uploadedAt }

	public, err := l.Save(fileHeader(t, "my  mug.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "uploads/2026-03-01_10-30_my mug.png", public)

	data, err := os.ReadFile(filepath.Join(dir, "2026-03-01_10-30_my mug.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Remove(public))
	require.NoError(t, l.Remove(public), "second remove is a no-op")
	assert.Error(t, l.Remove("uploads/../secret"))
}
