package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/files", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "user_data", r.FormValue("purpose"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "paper.pdf", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), data)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"file-abc123","object":"file","filename":"paper.pdf","purpose":"user_data"}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key", "test-model")

	fileID, err := client.UploadFile(context.Background(), "paper.pdf", []byte("%PDF-1.4 fake"))

	require.NoError(t, err)
	assert.Equal(t, "file-abc123", fileID)
}

func TestUploadFileHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "uploads not allowed")
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key", "test-model")

	_, err := client.UploadFile(context.Background(), "paper.pdf", []byte("x"))

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}

func TestPDFDataURL(t *testing.T) {
	url := PDFDataURL([]byte("hello"))
	assert.True(t, strings.HasPrefix(url, "data:application/pdf;base64,"))
	assert.Contains(t, url, "aGVsbG8=")
}

func TestStructuredMessageMarshal(t *testing.T) {
	msg := PartsMessage("user",
		FileDataPart("paper.pdf", "data:application/pdf;base64,aGVsbG8="),
		TextPart("Summarize this paper."),
	)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	want := `{"role":"user","content":[` +
		`{"type":"file","file":{"filename":"paper.pdf","file_data":"data:application/pdf;base64,aGVsbG8="}},` +
		`{"type":"text","text":"Summarize this paper."}]}`
	assert.JSONEq(t, want, string(data))
}

func TestMessageTextContent(t *testing.T) {
	assert.Equal(t, "plain", TextMessage("user", "plain").TextContent())

	structured := PartsMessage("user", FileIDPart("file-1"), TextPart("a"), TextPart("b"))
	assert.Equal(t, "ab", structured.TextContent())
}
