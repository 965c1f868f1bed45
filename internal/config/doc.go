// Package config provides centralized configuration management for pricepulse.
// It loads settings from defaults, an optional YAML file, an optional .env
// file and environment variables, and resolves every file path relative to a
// single working directory.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default values
//	2. config.yaml (first found in the search locations)
//	3. .env file in the working directory (loaded into the environment)
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern PULSE_<SECTION>_<FIELD>:
//
//	PULSE_SERVER_PORT=8080
//	PULSE_LOGGING_LEVEL=debug
//	PULSE_COLLECTORS_STEP_TIMEOUT=10m
//	PULSE_STORAGE_DATABASE_PATH=data/pulse.db
//
// # Collectors
//
// The collector steps run by the integrator are defined in collectors.yaml.
// When the file is absent the built-in definitions from DefaultCollectors are
// used.
package config
