package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"opcpub/internal/addrspace"
	"opcpub/internal/config"
	"opcpub/internal/subscription"
	"opcpub/internal/ua"
)

const (
	sessionToken = ua.NodeID("ns=1;s=demo-session")
	boilerNode   = ua.NodeID("ns=1;s=Boiler")
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Int("sensors", len(cfg.Sensors)).
		Dur("publishingInterval", cfg.GetPublishingIntervalDuration()).
		Msg("starting opcpub")

	// Build the address space: one value node per sensor, plus an event
	// notifier node the demo events are raised against.
	space := addrspace.NewSimSpace(logger)
	for _, sensor := range cfg.Sensors {
		space.AddNode(sensorNode(sensor.Name), map[ua.AttributeID]ua.Variant{
			ua.AttrDisplayName: sensor.Name,
			ua.AttrValue:       sensor.Start,
		})
	}
	space.AddNode(boilerNode, map[ua.AttributeID]ua.Variant{
		ua.AttrDisplayName:   "Boiler",
		ua.AttrEventNotifier: uint8(1),
	})

	registry := subscription.NewRegistry(space, logger)

	data := registry.CreateSubscription(ua.CreateSubscriptionRequest{
		SessionToken:                sessionToken,
		RequestedPublishingInterval: cfg.GetPublishingIntervalDuration(),
		RequestedLifetimeCount:      cfg.LifetimeCount,
		RequestedMaxKeepAliveCount:  cfg.MaxKeepAliveCount,
	}, func(result ua.PublishResult) {
		logDelivery(logger, result)
	})

	createItems(registry, data.SubscriptionID, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	for _, sensor := range cfg.Sensors {
		wg.Add(1)
		go runSensor(ctx, &wg, space, sensor, logger)
	}

	wg.Add(1)
	go runPublishPump(ctx, &wg, registry, cfg.GetPublishPumpIntervalDuration())

	if cfg.EventInterval > 0 {
		wg.Add(1)
		go runEventSource(ctx, &wg, registry, cfg.GetEventIntervalDuration())
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()
	wg.Wait()
	registry.DeleteAll()
}

// sensorNode maps a configured sensor name to its node id.
func sensorNode(name string) ua.NodeID {
	return ua.NodeID("ns=1;s=" + name)
}

// createItems registers one data item per configured sensor and one event
// item on the boiler node.
func createItems(registry *subscription.Registry, subID uint32, cfg *config.Config, logger zerolog.Logger) {
	reqs := make([]ua.MonitoredItemCreateRequest, 0, len(cfg.Sensors)+1)
	for i, sensor := range cfg.Sensors {
		reqs = append(reqs, ua.MonitoredItemCreateRequest{
			ItemToMonitor: ua.ReadValueID{Node: sensorNode(sensor.Name), Attribute: ua.AttrValue},
			Mode:          ua.MonitoringReporting,
			Parameters: ua.MonitoringParameters{
				ClientHandle:     uint32(i + 1),
				SamplingInterval: cfg.GetPublishingIntervalDuration(),
				QueueSize:        1,
			},
		})
	}
	reqs = append(reqs, ua.MonitoredItemCreateRequest{
		ItemToMonitor: ua.ReadValueID{Node: boilerNode, Attribute: ua.AttrEventNotifier},
		Mode:          ua.MonitoringReporting,
		Parameters: ua.MonitoringParameters{
			ClientHandle: uint32(len(cfg.Sensors) + 1),
			Filter: ua.EventFilter{SelectClauses: []ua.SimpleAttributeOperand{
				{BrowsePath: []ua.QualifiedName{{Name: "Message"}}},
				{BrowsePath: []ua.QualifiedName{{Name: "Severity"}}},
				{BrowsePath: []ua.QualifiedName{{Name: "SourceName"}}},
			}},
		},
	})

	for i, result := range registry.CreateMonitoredItems(subID, reqs) {
		if result.Status.IsBad() {
			logger.Error().
				Str("node", string(reqs[i].ItemToMonitor.Node)).
				Str("status", result.Status.String()).
				Msg("failed to create monitored item")
			continue
		}
		logger.Info().
			Str("node", string(reqs[i].ItemToMonitor.Node)).
			Uint32("monitoredItemID", result.MonitoredItemID).
			Msg("monitored item created")
	}
}

// runSensor drives a random walk over the sensor's value attribute.
func runSensor(ctx context.Context, wg *sync.WaitGroup, space *addrspace.SimSpace, sensor config.SensorConfig, logger zerolog.Logger) {
	defer wg.Done()

	node := sensorNode(sensor.Name)
	value := sensor.Start

	ticker := time.NewTicker(sensor.GetUpdateIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value += (rand.Float64()*2 - 1) * sensor.Step
			if status := space.WriteAttribute(node, ua.AttrValue, value); status.IsBad() {
				logger.Error().Str("node", string(node)).Str("status", status.String()).Msg("sensor write failed")
			}
		}
	}
}

// runPublishPump keeps the demo session supplied with publish requests so
// the subscription always has a credit to spend.
func runPublishPump(ctx context.Context, wg *sync.WaitGroup, registry *subscription.Registry, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Publish(sessionToken, nil)
		}
	}
}

// runEventSource raises a demo event on the boiler node at a fixed interval.
func runEventSource(ctx context.Context, wg *sync.WaitGroup, registry *subscription.Registry, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			registry.TriggerEvent(boilerNode, ua.Event{
				SourceNode:  boilerNode,
				SourceName:  "Boiler",
				Message:     "pressure threshold crossed",
				Severity:    uint16(100 + rand.Intn(900)),
				Time:        now,
				ReceiveTime: now,
			})
		}
	}
}

// logDelivery summarizes one delivered notification message.
func logDelivery(logger zerolog.Logger, result ua.PublishResult) {
	dataChanges, events := 0, 0
	if result.Message.DataChange != nil {
		dataChanges = len(result.Message.DataChange.Monitored)
	}
	if result.Message.Events != nil {
		events = len(result.Message.Events.Events)
	}

	evt := logger.Info().
		Uint32("subscriptionID", result.SubscriptionID).
		Uint32("sequenceNumber", result.Message.SequenceNumber)
	if dataChanges == 0 && events == 0 {
		evt.Msg("keep-alive delivered")
		return
	}
	evt.Int("dataChanges", dataChanges).Int("events", events).Msg("notification delivered")
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	// Set log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Configure output
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
