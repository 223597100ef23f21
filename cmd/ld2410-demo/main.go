// Command ld2410-demo walks through the driver's surface against a real
// module: firmware query, detection configuration, standard and engineering
// mode polling, and a Bluetooth MAC query.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgesensors/ld2410/ld2410"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial port the module is attached to")
	baud := flag.Int("baud", 256000, "module baud rate")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

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

	version, err := radar.FirmwareVersion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "firmware query failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Firmware: %s\n", version)

	// Max moving gate 2, max static gate 3, empty-room timeout 1s.
	if err := radar.SetDetectionParams(2, 3, 1); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set detection params: %v\n", err)
		os.Exit(1)
	}

	// Gate 3: moving sensitivity 50, static sensitivity 40.
	// Gates 1 and 2 only accept a static sensitivity of 0.
	if err := radar.SetGateSensitivity(3, 50, 40); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set gate sensitivity: %v\n", err)
		os.Exit(1)
	}

	params, err := radar.DetectionParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read detection params: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Configured: moving max gate %d, static max gate %d, empty timeout %ds\n",
		params.MovingMaxGate, params.StaticMaxGate, params.EmptyTimeout)
	fmt.Printf("Moving sensitivities: %v\n", params.MovingSensitivity)
	fmt.Printf("Static sensitivities: %v\n", params.StaticSensitivity)

	// Standard-mode polling at the module's native 10 Hz.
	radar.Start()
	for i := 0; i < 3; i++ {
		printReading(radar.Data())
		time.Sleep(time.Second)
	}

	// Engineering mode adds per-gate energy levels to every frame.
	if err := radar.EnableEngineeringMode(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable engineering mode: %v\n", err)
		os.Exit(1)
	}
	for i := 0; i < 3; i++ {
		printReading(radar.Data())
		time.Sleep(time.Second)
	}
	radar.DisableEngineeringMode()

	radar.Stop()

	mac, err := radar.BTMACAddress()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to query bluetooth MAC: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Bluetooth MAC: %s\n", mac)
}

func printReading(r *ld2410.Reading) {
	if r == nil {
		fmt.Println("no reading yet")
		return
	}
	fmt.Printf("target=%s moving=%dcm (energy %d) static=%dcm (energy %d) detection=%d\n",
		r.Target, r.MovingDistance, r.MovingEnergy, r.StaticDistance, r.StaticEnergy, r.DetectionDistance)
	if r.MovingGateEnergy != nil {
		fmt.Printf("  gate energies: moving=%v static=%v\n", r.MovingGateEnergy, r.StaticGateEnergy)
	}
}
