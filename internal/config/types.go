package config

import "time"

// Config represents the main configuration structure
type Config struct {
	LogLevel            string         `json:"logLevel"`
	PublishingInterval  int            `json:"publishingInterval"` // ms
	LifetimeCount       uint32         `json:"lifetimeCount"`
	MaxKeepAliveCount   uint32         `json:"maxKeepAliveCount"`
	PublishPumpInterval int            `json:"publishPumpInterval"` // ms - interval between publish-request credits
	EventInterval       int            `json:"eventInterval"`       // ms - interval between demo events, 0 disables them
	Sensors             []SensorConfig `json:"sensors"`
}

// SensorConfig represents a single simulated sensor node
type SensorConfig struct {
	Name             string  `json:"name"`
	Start            float64 `json:"start"`
	Step             float64 `json:"step"`
	UpdateIntervalMs int     `json:"updateIntervalMs"`
}

// Default values
const (
	DefaultLogLevel            = "info"
	DefaultPublishingInterval  = 1000 // ms
	DefaultLifetimeCount       = uint32(300)
	DefaultMaxKeepAliveCount   = uint32(10)
	DefaultPublishPumpInterval = 500  // ms
	DefaultEventInterval       = 5000 // ms
	DefaultSensorUpdateMs      = 1000 // ms
	DefaultSensorStep          = 0.5
)

// GetPublishingIntervalDuration returns the publishing interval as time.Duration
func (c *Config) GetPublishingIntervalDuration() time.Duration {
	return time.Duration(c.PublishingInterval) * time.Millisecond
}

// GetPublishPumpIntervalDuration returns the publish pump interval as time.Duration
func (c *Config) GetPublishPumpIntervalDuration() time.Duration {
	return time.Duration(c.PublishPumpInterval) * time.Millisecond
}

// GetEventIntervalDuration returns the demo event interval as time.Duration
func (c *Config) GetEventIntervalDuration() time.Duration {
	return time.Duration(c.EventInterval) * time.Millisecond
}

// GetUpdateIntervalDuration returns the sensor update interval as time.Duration
func (s *SensorConfig) GetUpdateIntervalDuration() time.Duration {
	return time.Duration(s.UpdateIntervalMs) * time.Millisecond
}
