// Package config loads and watches the server configuration.
//
// Load(path) applies defaults, then the optional YAML file, then environment
// variables (a .env file in the working directory is loaded first when
// present), and validates the result. Environment variables win over the
// file:
//
//	PORT, DATA_DIR, API_KEYS, CORS_ORIGINS,
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST, SCORE_WORKERS, SCORE_MAX_BATCH
//
// Watch(ctx, path, onChange) uses fsnotify to detect edits to the YAML file
// and calls onChange with the newly loaded Config. A file that fails to load
// is logged and ignored.
package config
