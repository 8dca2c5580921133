// Package main implements the fhir-searchindex CLI tool.
// It indexes FHIR resource files against a search parameter registry
// and prints the extracted index entries.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	si "github.com/gofhir/searchindex"
	"github.com/gofhir/searchindex/engine"
	"github.com/gofhir/searchindex/envs"
	"github.com/gofhir/searchindex/registry"
)

const (
	version = "0.1.0"
	usage   = `fhir-searchindex - FHIR Search Index Extractor

Usage:
  fhir-searchindex [options] <file>...
  fhir-searchindex [options] -              (read from stdin)
  cat resource.json | fhir-searchindex -    (pipe input)

Examples:
  fhir-searchindex invoice.json
  fhir-searchindex -bundle search-parameters.json patient.json
  fhir-searchindex -output json *.json
  cat invoice.json | fhir-searchindex -

Options:
`
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration.
type Config struct {
	Bundle      string
	Output      OutputFormat
	Timezone    string
	Quiet       bool
	ShowVersion bool
	Help        bool
	Files       []string
}

// IndexOutput represents the JSON output structure for one resource.
type IndexOutput struct {
	Resource string              `json:"resource"`
	Indexed  bool                `json:"indexed"`
	Entries  int                 `json:"entries"`
	Indices  *si.ResourceIndices `json:"indices,omitempty"`
	Error    string              `json:"error,omitempty"`
	Duration string              `json:"duration"`
}

func main() {
	config, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if config.ShowVersion {
		fmt.Printf("fhir-searchindex v%s\n", version)
		os.Exit(0)
	}

	if config.Help || len(config.Files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(config))
}

func parseFlags() (*Config, error) {
	envs.LoadEnv()
	defaults, err := envs.Gets()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	var output string
	flag.StringVar(&config.Bundle, "bundle", defaults.Bundle, "Search parameter bundle file (default: embedded R4 subset)")
	flag.StringVar(&output, "output", defaults.Output, "Output format: text, json")
	flag.StringVar(&config.Timezone, "timezone", defaults.Timezone, "IANA timezone anchoring partial dates")
	flag.BoolVar(&config.Quiet, "quiet", false, "Only print errors")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")
	flag.BoolVar(&config.Help, "help", false, "Show help")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	case "", "text":
		config.Output = OutputText
	default:
		return nil, fmt.Errorf("unknown output format %q", output)
	}

	config.Files = flag.Args()

	return config, nil
}

func run(config *Config) int {
	reg, err := loadRegistry(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unknown timezone %q: %v\n", config.Timezone, err)
		return 2
	}

	eng, err := engine.New(reg, si.WithTimezone(loc))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize engine: %v\n", err)
		return 2
	}

	hasErrors := false
	outputs := make([]IndexOutput, 0, len(config.Files))

	for _, file := range config.Files {
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				hasErrors = true
				continue
			}
			output, indexErr := indexData(eng, data, "stdin", config)
			outputs = append(outputs, output)
			if indexErr {
				hasErrors = true
			}
			continue
		}

		matches, globErr := filepath.Glob(file)
		if globErr != nil {
			fmt.Fprintf(os.Stderr, "Error with pattern '%s': %v\n", file, globErr)
			hasErrors = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "No files match pattern: %s\n", file)
			hasErrors = true
			continue
		}

		for _, match := range matches {
			output, fileHasErrors := indexFile(eng, match, config)
			outputs = append(outputs, output)
			if fileHasErrors {
				hasErrors = true
			}
		}
	}

	if config.Output == OutputJSON {
		jsonOutput, _ := json.MarshalIndent(outputs, "", "  ")
		fmt.Println(string(jsonOutput))
	}

	if hasErrors {
		return 1
	}
	return 0
}

func loadRegistry(config *Config) (*registry.Registry, error) {
	if config.Bundle == "" {
		return registry.Default()
	}

	log := zerolog.Nop()
	if !config.Quiet {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	loader := registry.NewLoader(log)
	reg, _, err := loader.LoadBundleFile(config.Bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle %s: %w", config.Bundle, err)
	}
	return reg, nil
}

func indexFile(eng *engine.Engine, path string, config *Config) (IndexOutput, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if config.Output == OutputText {
			fmt.Printf("Error reading %s: %v\n", path, err)
		}
		return IndexOutput{
			Resource: path,
			Error:    fmt.Sprintf("failed to read file: %v", err),
		}, true
	}
	return indexData(eng, data, path, config)
}

func indexData(eng *engine.Engine, data []byte, name string, config *Config) (IndexOutput, bool) {
	startTime := time.Now()
	indices, err := eng.IndexJSON(data)
	duration := time.Since(startTime)

	if err != nil {
		if config.Output == OutputText {
			fmt.Printf("Error indexing %s: %v\n", name, err)
		}
		return IndexOutput{
			Resource: name,
			Error:    err.Error(),
			Duration: duration.String(),
		}, true
	}

	output := IndexOutput{
		Resource: name,
		Indexed:  true,
		Entries:  indices.Len(),
		Indices:  indices,
		Duration: duration.String(),
	}

	if config.Output == OutputText && !config.Quiet {
		printText(name, indices, duration)
	}

	return output, false
}

func printText(name string, indices *si.ResourceIndices, duration time.Duration) {
	fmt.Printf("%s: %s/%s, %d entries (%s)\n",
		name, indices.ResourceType, indices.ResourceID, indices.Len(), duration)

	for _, e := range indices.TokenIndices {
		fmt.Printf("  token     %-20s %s|%s\n", e.Name, e.System, e.Code)
	}
	for _, e := range indices.StringIndices {
		fmt.Printf("  string    %-20s %s\n", e.Name, e.Value)
	}
	for _, e := range indices.ReferenceIndices {
		fmt.Printf("  reference %-20s %s\n", e.Name, e.Value)
	}
	for _, e := range indices.QuantityIndices {
		fmt.Printf("  quantity  %-20s %s %s (%s)\n", e.Name, e.Value, e.Unit, e.System)
	}
	for _, e := range indices.NumberIndices {
		fmt.Printf("  number    %-20s %s\n", e.Name, e.Value)
	}
	for _, e := range indices.DateIndices {
		fmt.Printf("  date      %-20s [%s, %s] (%s)\n",
			e.Name, e.From.Format(time.RFC3339), e.To.Format(time.RFC3339), e.Precision)
	}
	for _, e := range indices.URIIndices {
		fmt.Printf("  uri       %-20s %s\n", e.Name, e.Value)
	}
}
