// Package config loads application configuration from GOVDESK_* environment
// variables, optionally layered over a YAML file named by
// GOVDESK_CONFIG_FILE. Environment variables always win over the file.
package config
