// Package config holds the agent configuration and its validation.
package config
