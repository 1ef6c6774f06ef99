// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/docling-service/internal/container"
	"github.com/pdiddy/docling-service/pkg/types"
)

// detectRuntime is swapped in tests.
var detectRuntime = container.DetectRuntime

// New builds the converter selected by cfg. The container backend probes
// for docker or podman and the image before returning.
func New(ctx context.Context, cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return NewNativeConverter(), nil
	case types.BackendContainer:
		rt, err := detectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerConverter(ctx, rt, cfg.Image)
	case types.BackendDocling:
		if cfg.DoclingServeURL == "" {
			return nil, fmt.Errorf("docling backend requires a docling-serve URL")
		}
		return NewDoclingServeConverter(cfg.DoclingServeURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown converter backend %q", cfg.Backend)
	}
}
