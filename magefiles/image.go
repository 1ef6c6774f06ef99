//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const imageName = "docling-service"

// Image groups the container image targets.
type Image mg.Namespace

// runtime picks podman when present, docker otherwise.
func runtime() string {
	if _, err := sh.Output("podman", "--version"); err == nil {
		return "podman"
	}
	return "docker"
}

// Build builds the service image from the Dockerfile.
func (Image) Build() error {
	tag := imageName + ":" + version()
	if err := sh.RunV(runtime(), "build", "--build-arg", "VERSION="+version(), "-t", tag, "-t", imageName+":latest", "."); err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	fmt.Printf("Built %s\n", tag)
	return nil
}

// Run starts the image on port 8000, passing DOCLING_SERVICE_API_KEY through.
func (Image) Run() error {
	mg.Deps(Image.Build)
	return sh.RunV(runtime(), "run", "--rm", "-p", "8000:8000",
		"-e", "DOCLING_SERVICE_API_KEY", imageName+":latest")
}
