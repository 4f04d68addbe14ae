// Package config loads orderdesk configuration.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from ORDERDESK_* environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("orderdesk.yaml")
//
// Environment variables follow ORDERDESK_SECTION_FIELD, for example
// ORDERDESK_RULES_PATH overrides rules.path and
// ORDERDESK_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level.
//
// A minimal file:
//
//	rules:
//	  path: ./rules
//	  watch: true
//
//	history:
//	  enabled: true
//	  driver: sqlite3
//	  path: data/history.db
//	  retention_days: 30
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//
// Validation errors name the offending field:
//
//	configuration validation failed with 2 errors:
//	  - history.driver: unknown driver "postgres": must be one of sqlite3, sqlite, memory
//	  - telemetry.logging.level: invalid logging level "verbose"
package config
