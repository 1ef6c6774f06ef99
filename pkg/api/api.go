// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api defines the JSON bodies returned by the HTTP service.
package api

import "github.com/pdiddy/docling-service/pkg/types"

const (
	ServiceName    = "docling-pdf-processor"
	ServiceTitle   = "Docling PDF Processing Service"
	ServiceVersion = "1.0.0"
)

// ServiceInfo is returned by GET /.
type ServiceInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Health is returned by GET /health.
type Health struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"docling-pdf-processor"`
	Version string `json:"version" example:"1.0.0"`
}

// ConvertResponse is the success body of POST /convert-pdf.
type ConvertResponse struct {
	Status     types.ResultStatus `json:"status" example:"success"`
	Filename   string             `json:"filename" example:"doc.pdf"`
	TextLength int                `json:"text_length" example:"500"`
	Markdown   string             `json:"markdown"`
}

// Error is the body of every failed request.
type Error struct {
	Status types.ResultStatus `json:"status" example:"error"`
	Code   types.FailureKind  `json:"code" example:"invalid_api_key"`
	Detail string             `json:"detail" example:"Invalid API key"`
}

// NewServiceInfo describes the service and its routes.
func NewServiceInfo() ServiceInfo {
	return ServiceInfo{
		Service: ServiceTitle,
		Version: ServiceVersion,
		Endpoints: map[string]string{
			"health":  "/health",
			"convert": "/convert-pdf",
		},
	}
}

// NewHealth is the fixed liveness body.
func NewHealth() Health {
	return Health{Status: "healthy", Service: ServiceName, Version: ServiceVersion}
}

// FromResult converts a successful ConversionResult into its response body.
func FromResult(r types.ConversionResult) ConvertResponse {
	return ConvertResponse{
		Status:     r.Status,
		Filename:   r.Filename,
		TextLength: r.TextLength,
		Markdown:   r.Markdown,
	}
}

// NewError builds an error envelope.
func NewError(kind types.FailureKind, detail string) Error {
	return Error{Status: types.StatusError, Code: kind, Detail: detail}
}
