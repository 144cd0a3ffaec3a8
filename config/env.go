package config

import (
	"os"
)

// Environment selects which configuration source LoadConfig reads from:
// Docker secrets for development/test/production, plain environment
// variables on CI runners.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment resolves the runtime environment. CI runners are
// detected by their standard CI=true variable; everything else is driven
// by ENV, defaulting to development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}
