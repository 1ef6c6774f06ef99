// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "unicode/utf8"

// ConversionStatus indicates the outcome of converting one document on disk.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Document is a PDF on disk handed to the batch converter.
type Document struct {
	// ID is a slug derived from the filename (e.g. "annual-report").
	ID string `json:"id" yaml:"id"`

	// Path is the local filesystem path to the PDF.
	Path string `json:"path" yaml:"path"`
}

// ResultStatus tags a ConversionResult as a success or a failure.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// FailureKind classifies why a conversion request failed.
type FailureKind string

const (
	FailureAuthentication FailureKind = "invalid_api_key"
	FailureMissingFile    FailureKind = "missing_file"
	FailureFileType       FailureKind = "invalid_file_type"
	FailureTooLarge       FailureKind = "file_too_large"
	FailureConversion     FailureKind = "conversion_error"
	FailureTimeout        FailureKind = "conversion_timeout"
	FailureInternal       FailureKind = "internal_error"
	FailureNotFound       FailureKind = "not_found"
)

// ConversionRequest is an uploaded document. It lives for one HTTP call.
type ConversionRequest struct {
	Filename string
	Content  []byte
	Size     int64
}

// ConversionResult is the single outcome of a ConversionRequest.
type ConversionResult struct {
	Status     ResultStatus
	Filename   string
	Markdown   string
	TextLength int
	Kind       FailureKind
	Err        error
}

// Succeeded builds a success result. TextLength counts code points, not bytes.
func Succeeded(filename, markdown string) ConversionResult {
	return ConversionResult{
		Status:     StatusSuccess,
		Filename:   filename,
		Markdown:   markdown,
		TextLength: utf8.RuneCountInString(markdown),
	}
}

// Failed builds a failure result of the given kind.
func Failed(filename string, kind FailureKind, err error) ConversionResult {
	return ConversionResult{
		Status:   StatusError,
		Filename: filename,
		Kind:     kind,
		Err:      err,
	}
}

// OK reports whether the conversion succeeded.
func (r ConversionResult) OK() bool {
	return r.Status == StatusSuccess
}
