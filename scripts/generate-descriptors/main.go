package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/internal/sandbox"
	"github.com/goliatone/go-formguard/pkg/encoding"
)

func main() {
	outputDir := flag.String("output", "pkg/client/testdata", "directory receiving one <form>.json descriptor per sandbox form")
	flag.Parse()

	app, err := sandbox.New(sandbox.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build sandbox: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	enc := encoding.Default()
	for _, form := range app.Forms() {
		payload, err := json.MarshalIndent(form.Descriptor(enc), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode %s: %v\n", form.ID, err)
			os.Exit(1)
		}
		path := filepath.Join(*outputDir, form.ID+".json")
		if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("✓ %s (%d fields) → %s\n", form.ID, len(form.Schema.Fields()), path)
	}
}
