// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/docling-service/pkg/api"
	"github.com/pdiddy/docling-service/pkg/types"
)

var (
	errInvalidAPIKey   = api.NewError(types.FailureAuthentication, "Invalid API key")
	errMissingFile     = api.NewError(types.FailureMissingFile, "No file uploaded")
	errInvalidFileType = api.NewError(types.FailureFileType, "Only PDF files are supported")
	errConversion      = api.NewError(types.FailureConversion, "An error occurred while processing the PDF file")
	errTimeout         = api.NewError(types.FailureTimeout, "PDF conversion timed out")
	errInternal        = api.NewError(types.FailureInternal, "Internal server error")
)

func errTooLarge(limit int64) api.Error {
	return api.NewError(types.FailureTooLarge,
		fmt.Sprintf("File size exceeds maximum limit of %s", humanize.IBytes(uint64(limit))))
}

// failureResponse maps a failure kind to its status code and public body.
// Internal error text never reaches the client.
func failureResponse(kind types.FailureKind, maxFileSize int64) (int, api.Error) {
	switch kind {
	case types.FailureAuthentication:
		return http.StatusUnauthorized, errInvalidAPIKey
	case types.FailureMissingFile:
		return http.StatusBadRequest, errMissingFile
	case types.FailureFileType:
		return http.StatusBadRequest, errInvalidFileType
	case types.FailureTooLarge:
		return http.StatusRequestEntityTooLarge, errTooLarge(maxFileSize)
	case types.FailureConversion:
		return http.StatusInternalServerError, errConversion
	case types.FailureTimeout:
		return http.StatusInternalServerError, errTimeout
	default:
		return http.StatusInternalServerError, errInternal
	}
}
