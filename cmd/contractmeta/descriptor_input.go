package main

import (
	"fmt"
	"os"

	"contractmeta/internal/metadata"
)

// loadDescriptor reads a descriptor file in the format its extension names.
func loadDescriptor(path string) (*metadata.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := metadata.Load(data, metadata.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
