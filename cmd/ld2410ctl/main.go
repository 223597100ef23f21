// Command ld2410ctl is an interactive configuration shell for an LD2410
// module: query firmware and parameters, tune gates, toggle engineering
// mode and Bluetooth, change baud rates and watch live readings.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/rs/zerolog"

	"github.com/edgesensors/ld2410/ld2410"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial port the module is attached to")
	baud := flag.Int("baud", 256000, "module baud rate")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()

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

	shell := ishell.New()
	shell.Println("LD2410 configuration shell. Type 'help' for commands.")
	shell.SetPrompt(fmt.Sprintf("%s > ", *port))

	shell.AddCmd(&ishell.Cmd{
		Name: "fw",
		Help: "read firmware version",
		Func: func(c *ishell.Context) {
			version, err := radar.FirmwareVersion()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(version)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "params",
		Help: "read detection parameters",
		Func: func(c *ishell.Context) {
			params, err := radar.DetectionParams()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("moving max gate: %d\n", params.MovingMaxGate)
			c.Printf("static max gate: %d\n", params.StaticMaxGate)
			c.Printf("empty timeout:   %ds\n", params.EmptyTimeout)
			c.Printf("moving sens:     %v\n", params.MovingSensitivity)
			c.Printf("static sens:     %v\n", params.StaticSensitivity)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "set-params",
		Help: "set-params <moving-max-gate> <static-max-gate> <timeout-s>",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c.Args, 3)
			if err != nil {
				c.Err(err)
				return
			}
			if err := radar.SetDetectionParams(args[0], args[1], args[2]); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "sens",
		Help: "sens <gate> <moving> <static> — set one gate's sensitivities",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c.Args, 3)
			if err != nil {
				c.Err(err)
				return
			}
			if err := radar.SetGateSensitivity(args[0], args[1], args[2]); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "eng",
		Help: "eng <on|off> — toggle engineering mode telemetry",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: eng <on|off>"))
				return
			}
			var err error
			switch c.Args[0] {
			case "on":
				err = radar.EnableEngineeringMode()
			case "off":
				err = radar.DisableEngineeringMode()
			default:
				err = fmt.Errorf("usage: eng <on|off>")
			}
			if err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "bt",
		Help: "bt <on|off|mac> — control the Bluetooth radio",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: bt <on|off|mac>"))
				return
			}
			switch c.Args[0] {
			case "on":
				if err := radar.BTEnable(); err != nil {
					c.Err(err)
				}
			case "off":
				if err := radar.BTDisable(); err != nil {
					c.Err(err)
				}
			case "mac":
				mac, err := radar.BTMACAddress()
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(mac)
			default:
				c.Err(fmt.Errorf("usage: bt <on|off|mac>"))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "baud",
		Help: "baud <rate> — change the module baud rate and reconnect",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c.Args, 1)
			if err != nil {
				c.Err(err)
				return
			}
			sel, ok := ld2410.BaudRateFromBits(args[0])
			if !ok {
				c.Err(fmt.Errorf("unsupported baud rate %d", args[0]))
				return
			}
			if err := radar.SetBaudRate(sel, true); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "restart",
		Help: "restart the module",
		Func: func(c *ishell.Context) {
			if err := radar.Restart(0); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "factory-reset",
		Help: "restore factory defaults and reconnect",
		Func: func(c *ishell.Context) {
			c.Print("really factory reset? [y/N] ")
			if c.ReadLine() != "y" {
				return
			}
			if err := radar.FactoryReset(true); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "watch",
		Help: "watch <seconds> — poll and print live readings",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c.Args, 1)
			if err != nil {
				c.Err(err)
				return
			}

			radar.Start()
			defer radar.Stop()

			deadline := time.Now().Add(time.Duration(args[0]) * time.Second)
			for time.Now().Before(deadline) {
				if r := radar.Data(); r != nil {
					c.Printf("target=%s moving=%dcm/%d static=%dcm/%d detect=%d\n",
						r.Target, r.MovingDistance, r.MovingEnergy,
						r.StaticDistance, r.StaticEnergy, r.DetectionDistance)
				}
				time.Sleep(time.Second)
			}
		},
	})

	shell.Run()
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}
