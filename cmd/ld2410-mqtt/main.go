// Command ld2410-mqtt polls an LD2410 module and publishes each reading as
// JSON to an MQTT topic, for home-automation setups that want presence
// events on the bus.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/edgesensors/ld2410/ld2410"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial port the module is attached to")
	baud := flag.Int("baud", 256000, "module baud rate")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	topic := flag.String("topic", "sensors/ld2410/reading", "MQTT topic to publish readings on")
	clientID := flag.String("client-id", "ld2410-mqtt", "MQTT client ID")
	interval := flag.Duration("interval", time.Second, "publish interval")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	selector, ok := ld2410.BaudRateFromBits(*baud)
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported baud rate %d\n", *baud)
		os.Exit(1)
	}

	radar, err := ld2410.NewRadar(ld2410.Config{
		Port:   *port,
		Baud:   selector,
		Logger: &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open radar: %v\n", err)
		os.Exit(1)
	}
	defer radar.Close()

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID(*clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to broker: %v\n", token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	logger.Info().Str("broker", *broker).Str("topic", *topic).Msg("connected")

	radar.Start()
	defer radar.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			logger.Info().Msg("shutting down")
			return
		case <-ticker.C:
			reading := radar.Data()
			if reading == nil {
				continue
			}
			payload, err := json.Marshal(reading)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode reading")
				continue
			}
			if token := client.Publish(*topic, 0, false, payload); token.Wait() && token.Error() != nil {
				logger.Warn().Err(token.Error()).Msg("publish failed")
			}
		}
	}
}
