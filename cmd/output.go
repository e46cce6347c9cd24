package cmd

import (
	"fmt"
	"io"
	"os"
)

// openOutput returns the report destination and a function closing it.
func openOutput() (io.Writer, func() error, error) {
	if cfg.Output.File == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(cfg.Output.File)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
