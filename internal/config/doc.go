// Package config loads keep's configuration.
//
// Values come from three layers, later ones winning:
//
//  1. built-in defaults
//  2. the TOML file (~/.config/keep/config.toml unless a path is given)
//  3. KEEP_* environment variables, optionally seeded from a .env file in
//     the working directory; variables already set are not overwritten
//
// A missing config file is not an error. Example:
//
//	base_url = "https://keep.kevindupas.com/api"
//	cache_backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	log_level = "debug"
//	poll_seconds = 15
//
// Paths accept a leading ~ and are made absolute.
package config
