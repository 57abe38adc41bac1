// Package config provides configuration structures and utilities for pagescan.
// It defines scan defaults, the optional .pagescan YAML file with per-host
// request settings, and the XDG directories used for persistent data.
package config
