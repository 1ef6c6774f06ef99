// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disablePDFCPUConfig sync.Once

// NativeConverter extracts text in-process. pdfcpu validates the document
// and counts pages; ledongthuc/pdf pulls the text of each page. Pages are
// separated by an HTML comment marker so the output stays valid Markdown.
type NativeConverter struct{}

func NewNativeConverter() *NativeConverter {
	// pdfcpu otherwise creates a config directory under the user's home.
	disablePDFCPUConfig.Do(pdfapi.DisableConfigDir)
	return &NativeConverter{}
}

func (n *NativeConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	pages, err := inspect(doc)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	md, err := extractText(ctx, doc)
	if err != nil {
		return "", err
	}
	if md == "" {
		return "", fmt.Errorf("%d page(s), no extractable text: %w", pages, ErrEmptyOutput)
	}
	return md, nil
}

// inspect validates doc with pdfcpu and returns its page count.
func inspect(doc []byte) (int, error) {
	if len(doc) == 0 {
		return 0, fmt.Errorf("empty input: %w", ErrInvalidDocument)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return pctx.PageCount, nil
}

// extractText walks every page. The reader panics on some malformed
// streams, so a panic is turned into an error.
func extractText(ctx context.Context, doc []byte) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: text extraction panicked: %v", ErrInvalidDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "<!-- page %d -->\n\n", i)
		sb.WriteString(text)
	}
	return sb.String(), nil
}
