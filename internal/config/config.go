package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.PublishingInterval == 0 {
		cfg.PublishingInterval = DefaultPublishingInterval
	}
	if cfg.LifetimeCount == 0 {
		cfg.LifetimeCount = DefaultLifetimeCount
	}
	if cfg.MaxKeepAliveCount == 0 {
		cfg.MaxKeepAliveCount = DefaultMaxKeepAliveCount
	}
	if cfg.PublishPumpInterval == 0 {
		cfg.PublishPumpInterval = DefaultPublishPumpInterval
	}
	if cfg.EventInterval == 0 {
		cfg.EventInterval = DefaultEventInterval
	}

	// Apply defaults to sensors
	for i := range cfg.Sensors {
		if cfg.Sensors[i].UpdateIntervalMs == 0 {
			cfg.Sensors[i].UpdateIntervalMs = DefaultSensorUpdateMs
		}
		if cfg.Sensors[i].Step == 0 {
			cfg.Sensors[i].Step = DefaultSensorStep
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.PublishingInterval < 0 {
		return fmt.Errorf("publishingInterval must be non-negative")
	}

	if cfg.PublishPumpInterval < 0 {
		return fmt.Errorf("publishPumpInterval must be non-negative")
	}

	if cfg.EventInterval < 0 {
		return fmt.Errorf("eventInterval must be non-negative")
	}

	if len(cfg.Sensors) == 0 {
		return errors.New("at least one sensor is required")
	}

	sensorNames := make(map[string]bool)
	for i, sensor := range cfg.Sensors {
		if sensor.Name == "" {
			return fmt.Errorf("sensor[%d]: name is required", i)
		}

		if sensorNames[sensor.Name] {
			return fmt.Errorf("sensor[%d]: duplicate sensor name '%s'", i, sensor.Name)
		}
		sensorNames[sensor.Name] = true

		if sensor.UpdateIntervalMs < 0 {
			return fmt.Errorf("sensor '%s': updateIntervalMs must be non-negative", sensor.Name)
		}
	}

	return nil
}
