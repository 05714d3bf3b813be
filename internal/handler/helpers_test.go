package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ecampus-api/internal/middleware"
	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type upload struct {
	field    string
	filename string
	content  string
}

func newMultipartContext(t *testing.T, method, path string, fields map[string]string, files ...upload) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}

func withClaims(c *gin.Context, accountID string, role models.Role) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: accountID, Role: role})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Envelope {
	t.Helper()
	var raw struct {
		Data json.RawMessage `json:"data"`
		response.Envelope
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Envelope
}

type memStore struct {
	mu      sync.Mutex
	files   map[string]string
	deleted []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{files: map[string]string{}}
}

func (m *memStore) Save(originalName string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := fmt.Sprintf("/uploads/%d-%s", len(m.files)+1, originalName)
	m.files[path] = string(body)
	return path, nil
}

func (m *memStore) Delete(publicPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, publicPath)
	m.deleted = append(m.deleted, publicPath)
	return nil
}
