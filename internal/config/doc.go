// Package config defines the application's configuration structure and
// loading behavior. Settings come from defaults, an optional config.yaml,
// and WORDBRIDGE_-prefixed environment variables, in increasing order of
// precedence, and are validated before use.
package config
