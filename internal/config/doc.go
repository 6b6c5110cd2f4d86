// Package config manages user-level settings stored at ~/.magoo/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the git binary to invoke and the default clone depth.
package config
