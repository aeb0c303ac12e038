// Package config loads the optional .zerv.yaml file. Command-line flags
// take precedence over every value read here.
package config
