// Package config loads imagefit settings from a YAML or TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the file, IMAGEFIT_*
// environment variables, then command-line flags (applied by cmd/imagefit).
//
// Example YAML:
//
//	listen: ":8080"
//	prefix: /image
//	root: /srv/images
//	roots:
//	  static_resize: /srv/static
//	presets:
//	  thumbnail: "100x100,C"
//	cache:
//	  backend: local
//	  local_path: /var/cache/imagefit
//	  prune_schedule: "@daily"
package config
