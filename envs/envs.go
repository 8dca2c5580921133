// Package envs loads CLI configuration from the environment and an
// optional .env file.
package envs

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Envs holds environment-driven defaults for the fhir-searchindex CLI.
// Flags override these.
type Envs struct {
	// Bundle is the path of a search parameter bundle to load instead
	// of the embedded one.
	Bundle string `env:"SEARCHINDEX_BUNDLE" envDefault:""`

	// Output is the default output format (text or json).
	Output string `env:"SEARCHINDEX_OUTPUT" envDefault:"text"`

	// Timezone is an IANA location name used to anchor partial dates.
	Timezone string `env:"SEARCHINDEX_TIMEZONE" envDefault:"UTC"`
}

// LoadEnv loads a .env file from the working directory if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}
}

// Gets parses the environment into an Envs value.
func Gets() (Envs, error) {
	var envs Envs
	if err := env.Parse(&envs); err != nil {
		return Envs{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return envs, nil
}
