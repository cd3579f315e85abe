// Package config defines the application's configuration surface and loads
// it from environment variables and optional config files, with validation.
package config
