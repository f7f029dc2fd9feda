// Package config loads taskshare's settings from defaults, an optional
// config.yaml and TASKSHARE_* environment variables, then validates them
// before any component is built. Each section exposes its durations as
// time.Duration helpers so callers never multiply raw seconds themselves.
package config
