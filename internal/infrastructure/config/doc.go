// Package config handles loading and validating Iris hub configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The device topology itself (the RTU file) is not parsed here; this package
// only records where it lives. See package rtu for topology loading.
//
// Usage:
//
//	cfg, err := config.Load("/etc/iris/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.RTU.ConfigFile)
package config
