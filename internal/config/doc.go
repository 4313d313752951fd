// Package config loads the server and CLI settings from config.yaml, a .env
// file and LINGO_* environment variables, and validates them before any
// component starts.
package config
