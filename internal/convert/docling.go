// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pdiddy/docling-service/internal/httputil"
)

const (
	doclingConvertPath = "/v1/convert/file"
	// doclingErrBodyLimit caps how much of a failed response is quoted in errors.
	doclingErrBodyLimit = 512
)

// DoclingServeConverter posts documents to a docling-serve instance and
// returns the Markdown rendition it produces.
type DoclingServeConverter struct {
	baseURL string
	client  *http.Client
}

// NewDoclingServeConverter targets the docling-serve instance at baseURL.
// A nil client uses http.DefaultClient; deadlines come from ctx.
func NewDoclingServeConverter(baseURL string, client *http.Client) *DoclingServeConverter {
	if client == nil {
		client = http.DefaultClient
	}
	return &DoclingServeConverter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type doclingResponse struct {
	Document struct {
		MDContent string `json:"md_content"`
	} `json:"document"`
	Status string `json:"status"`
	Errors []struct {
		ComponentType string `json:"component_type"`
		ErrorMessage  string `json:"error_message"`
	} `json:"errors"`
}

func (d *DoclingServeConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	body, contentType, err := doclingForm(doc)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+doclingConvertPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building docling-serve request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, d.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling docling-serve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, doclingErrBodyLimit))
		return "", fmt.Errorf("docling-serve returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding docling-serve response: %w", err)
	}

	if out.Status == "failure" || (len(out.Errors) > 0 && out.Document.MDContent == "") {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.ErrorMessage)
		}
		return "", fmt.Errorf("docling-serve status %q: %s", out.Status, strings.Join(msgs, "; "))
	}

	md := strings.TrimSpace(out.Document.MDContent)
	if md == "" {
		return "", fmt.Errorf("docling-serve: %w", ErrEmptyOutput)
	}
	return md, nil
}

func doclingForm(doc []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("to_formats", "md"); err != nil {
		return nil, "", fmt.Errorf("writing form field: %w", err)
	}
	part, err := mw.CreateFormFile("files", "document.pdf")
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(doc); err != nil {
		return nil, "", fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
