package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/stylus/internal/config"
)

const header = "# Stylus Configuration Example\n# Copy this file to config.yaml and customize as needed\n"

func main() {
	// "-" writes to stdout
	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	var b strings.Builder
	if err := writeExample(&b); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	if outputFile == "-" {
		fmt.Print(b.String())
		return
	}

	if err := os.WriteFile(outputFile, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}

// writeExample writes the default configuration with a comment block
// listing the environment variables that override it.
func writeExample(w io.Writer) error {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, header+"#\n# Environment overrides:\n"); err != nil {
		return err
	}
	for _, v := range config.EnvVars() {
		if _, err := fmt.Fprintf(w, "#   %-26s %s\n", v.Name, v.Key); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n%s", data)
	return err
}
