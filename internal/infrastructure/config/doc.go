// Package config handles loading and validating MQTT bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with MQTTBRIDGE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (InfluxDB token) should be set via environment variables
//   - A .env file next to the binary is loaded by cmd/mqttbridge before Load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker)
package config
