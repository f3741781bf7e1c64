package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// PDFDataURL encodes raw PDF bytes as the inline data-URL form accepted by
// non-OpenAI-compatible servers in a file content part.
func PDFDataURL(data []byte) string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
}

// UploadFile pushes a document to the files endpoint (purpose=user_data) and
// returns the file id for upload-then-reference servers.
func (c *OpenAIClient) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("purpose", "user_data"); err != nil {
		return "", fmt.Errorf("error writing purpose field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("error writing file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/files", &buf)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPStatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var uploaded fileObject
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("no file id in response")
	}

	return uploaded.ID, nil
}

type fileObject struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
}
