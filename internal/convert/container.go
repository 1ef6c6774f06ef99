// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/docling-service/internal/container"
)

// ContainerConverter converts documents by piping them through a container
// image (markitdown by default) on stdin and reading Markdown from stdout.
// The container runs without network access.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
	args    []string
}

// NewContainerConverter creates a converter that uses the given container
// runtime to run image. It verifies that the image exists locally before
// returning.
func NewContainerConverter(ctx context.Context, rt container.Runtime, image string, args ...string) (*ContainerConverter, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("%s image not available in %s: %w", image, rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt, image: image, args: args}, nil
}

func (c *ContainerConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	var out bytes.Buffer
	err := c.runtime.Run(ctx, container.RunSpec{
		Image:   c.image,
		Args:    c.args,
		Network: "none",
		Stdin:   bytes.NewReader(doc),
		Stdout:  &out,
	})
	if err != nil {
		return "", fmt.Errorf("converting with %s: %w", c.image, err)
	}

	md := strings.TrimSpace(out.String())
	if md == "" {
		return "", fmt.Errorf("%s: %w", c.image, ErrEmptyOutput)
	}
	return md, nil
}
