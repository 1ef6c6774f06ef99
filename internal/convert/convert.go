// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns PDF bytes into Markdown through pluggable backends
// and runs batch conversions of PDFs on disk.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/docling-service/pkg/types"
)

var (
	// ErrEmptyOutput is returned when a backend succeeds but produces no text.
	ErrEmptyOutput = errors.New("conversion produced empty output")

	// ErrInvalidDocument is returned when the input is not a readable PDF.
	ErrInvalidDocument = errors.New("invalid PDF document")
)

// Converter transforms a document into Markdown text. Backends (native,
// container, docling-serve) implement this interface.
type Converter interface {
	// Convert reads the raw document bytes and returns Markdown.
	Convert(ctx context.Context, doc []byte) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, doc []byte) (string, error)

func (f ConverterFunc) Convert(ctx context.Context, doc []byte) (string, error) {
	return f(ctx, doc)
}

type limitConverter struct {
	next  Converter
	slots *semaphore.Weighted
}

// WithLimit allows at most n calls into c at once. Callers wait for a slot
// until ctx ends. The slot is released only when c returns, so a call that
// an outer WithTimeout abandoned still counts against n.
func WithLimit(c Converter, n int) Converter {
	if n < 1 {
		n = 1
	}
	return &limitConverter{next: c, slots: semaphore.NewWeighted(int64(n))}
}

func (l *limitConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for a conversion slot: %w", err)
	}
	defer l.slots.Release(1)
	return l.next.Convert(ctx, doc)
}

type timeoutConverter struct {
	next    Converter
	timeout time.Duration
}

// WithTimeout bounds every call to c by d. A non-positive d returns c unchanged.
func WithTimeout(c Converter, d time.Duration) Converter {
	if d <= 0 {
		return c
	}
	return &timeoutConverter{next: c, timeout: d}
}

func (t *timeoutConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		md  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("converter panicked: %v", r)}
			}
		}()
		md, err := t.next.Convert(ctx, doc)
		done <- result{md, err}
	}()

	// Backends that ignore ctx are abandoned; their goroutine finishes on its own.
	select {
	case r := <-done:
		return r.md, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("conversion abandoned after %v: %w", t.timeout, ctx.Err())
	}
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Batch writes converted documents into OutDir and reports progress to Log.
type Batch struct {
	Converter Converter
	Backend   types.ConversionBackend
	OutDir    string
	Log       io.Writer
}

// ConvertDocument converts a single PDF to Markdown, writing the result to
// OutDir. If the Markdown output already exists, it skips conversion and
// returns ConversionNone.
func (b Batch) ConvertDocument(ctx context.Context, doc types.Document) types.ConversionStatus {
	base := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	mdPath := filepath.Join(b.OutDir, base+".md")

	if _, err := os.Stat(mdPath); err == nil {
		fmt.Fprintf(b.Log, "skipped: %s (already exists)\n", base)
		return types.ConversionNone
	}

	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		fmt.Fprintf(b.Log, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		fmt.Fprintf(b.Log, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	raw, err := b.Converter.Convert(ctx, data)
	if err != nil {
		fmt.Fprintf(b.Log, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	content, err := b.addFrontmatter(doc, raw)
	if err != nil {
		fmt.Fprintf(b.Log, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		fmt.Fprintf(b.Log, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(b.Log, "converted: %s\n", base)
	return types.ConversionDone
}

// ConvertBatch processes documents in order, printing per-file status and a
// summary. Cancelling ctx fails the remaining documents.
func (b Batch) ConvertBatch(ctx context.Context, docs []types.Document) BatchResult {
	var result BatchResult
	for _, d := range docs {
		switch b.ConvertDocument(ctx, d) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(b.Log, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds Document records from PDF paths and delegates to
// ConvertBatch. Each ID is derived from the filename.
func (b Batch) ConvertPaths(ctx context.Context, paths []string) BatchResult {
	docs := make([]types.Document, len(paths))
	for i, p := range paths {
		docs[i] = types.Document{
			ID:   strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
			Path: p,
		}
	}
	return b.ConvertBatch(ctx, docs)
}

type frontmatter struct {
	DocumentID  string `yaml:"document_id"`
	SourcePDF   string `yaml:"source_pdf"`
	ConvertedAt string `yaml:"converted_at"`
	Backend     string `yaml:"backend,omitempty"`
}

func (b Batch) addFrontmatter(doc types.Document, body string) (string, error) {
	fm, err := yaml.Marshal(frontmatter{
		DocumentID:  doc.ID,
		SourcePDF:   doc.Path,
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
		Backend:     string(b.Backend),
	})
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fm)
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	return sb.String(), nil
}
