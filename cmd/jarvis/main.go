// Jarvis is a voice-driven robot assistant: sensor fusion, environment
// scanning and hybrid online/offline command routing on a Raspberry Pi.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jarvispi/go-jarvis/internal/config"
	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/pkg/actuator"
	"github.com/jarvispi/go-jarvis/pkg/command"
	"github.com/jarvispi/go-jarvis/pkg/display"
	"github.com/jarvispi/go-jarvis/pkg/hal"
	"github.com/jarvispi/go-jarvis/pkg/hub"
	"github.com/jarvispi/go-jarvis/pkg/inference"
	"github.com/jarvispi/go-jarvis/pkg/mail"
	"github.com/jarvispi/go-jarvis/pkg/poller"
	"github.com/jarvispi/go-jarvis/pkg/scan"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
	"github.com/jarvispi/go-jarvis/pkg/telemetry"
	"github.com/jarvispi/go-jarvis/pkg/web"
)

const panChannel = "pan"

func main() {
	configPath := pflag.String("config", "", "path to config.yaml")
	console := pflag.Bool("console", false, "read commands from stdin")
	simulate := pflag.Bool("simulate", false, "use simulated hardware")
	forceOffline := pflag.Bool("offline", false, "never call the online backend")
	pflag.Parse()

	cfg := loadConfig(*configPath)
	if *simulate {
		cfg.Simulate = true
	}
	if *forceOffline {
		cfg.Backend.ForceOffline = true
	}

	log.Init(cfg.LogLevel)
	logger := log.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hardware
	dht, dist, motion, gas, servoDriver, err := buildHardware(cfg)
	if err != nil {
		logger.Error("hardware init failed", "error", err)
		os.Exit(1)
	}

	manager := sensors.NewManager(dht, dist, motion, gas)

	head, err := actuator.New(servoDriver, cfg.Actuator.SettleBase, cfg.Actuator.SettlePerDegree,
		actuator.Channel{
			Name:   panChannel,
			Index:  cfg.Actuator.PanChannel,
			Min:    cfg.Actuator.MinAngle,
			Max:    cfg.Actuator.MaxAngle,
			Center: cfg.Actuator.CenterAngle,
		})
	if err != nil {
		logger.Error("actuator init failed", "error", err)
		os.Exit(1)
	}
	if _, err := head.Home(ctx, panChannel); err != nil {
		logger.Warn("initial head centering failed", "error", err)
	}

	var notify display.Notifier = display.Nop{}
	if cfg.Simulate {
		notify = display.Log{}
	}

	scanner := scan.New(head, manager, notify, scan.Options{
		Channel:         panChannel,
		StartAngle:      cfg.Scan.StartAngle,
		EndAngle:        cfg.Scan.EndAngle,
		Step:            cfg.Scan.Step,
		SamplesPerAngle: cfg.Scan.SamplesPerAngle,
		Settle:          cfg.Scan.Settle,
		BlockedBelowCM:  cfg.Scan.BlockedBelowCM,
	})

	// Conversation backend
	var online inference.Provider
	var ledger *inference.Ledger
	if cfg.Backend.APIKey != "" {
		online, err = inference.NewGemini(
			inference.WithAPIKey(cfg.Backend.APIKey),
			inference.WithModel(cfg.Backend.Model),
			inference.WithTimeout(cfg.Backend.Timeout),
			inference.WithLogger(log.L()),
		)
		if err != nil {
			logger.Error("gemini init failed", "error", err)
			os.Exit(1)
		}
		defer online.Close()
		ledger = inference.NewLedger(cfg.Backend.QuotaFile, cfg.Backend.DailyLimit, cfg.Backend.HourlyLimit)
	} else {
		logger.Warn("no API key configured, running offline only")
	}

	var mailReader command.MailReader
	if cfg.Mail.Enabled {
		r, err := mail.NewReader(ctx, cfg.Mail.ClientID, cfg.Mail.ClientSecret, cfg.Mail.TokenPath)
		if err != nil {
			logger.Warn("gmail init failed, email tool disabled", "error", err)
		} else {
			mailReader = r
		}
	}

	tools := command.NewTools(manager, scanner, head, mailReader, panChannel)
	router := command.NewRouter(command.RouterConfig{
		Tools:         tools,
		Online:        online,
		Quota:         ledger,
		Cache:         inference.NewResponseCache(time.Hour, 128),
		ForceOffline:  cfg.Backend.ForceOffline,
		OnlineTimeout: cfg.Backend.Timeout,
	})

	// Dashboard and background loops
	var server *web.Server
	if cfg.Web.Enabled {
		var quota web.Quota
		if ledger != nil {
			quota = ledger
		}
		server = web.NewServer(fmt.Sprint(cfg.Web.Port), router, manager, scanner, quota)
		srv := server
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("web server stopped", "error", err)
				stop()
			}
		}()
	}

	if cfg.Poll.Enabled {
		p := poller.New(manager, eventsHub(server), cfg.Poll.Interval)
		go p.Run(ctx)
	}

	if cfg.MQTT.Enabled {
		pub := telemetry.NewPublisher(telemetry.Config{
			Broker:     cfg.MQTT.Broker,
			Username:   cfg.MQTT.Username,
			Password:   cfg.MQTT.Password,
			DeviceName: cfg.MQTT.DeviceName,
			Interval:   cfg.MQTT.Interval,
		}, manager)
		go func() {
			if err := pub.Start(ctx); err != nil {
				logger.Warn("telemetry stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			pub.Stop(shutdownCtx)
		}()
	}

	logger.Info("jarvis ready",
		"simulate", cfg.Simulate,
		"web", cfg.Web.Enabled,
		"online_backend", online != nil)

	if *console {
		runConsole(ctx, router)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	if server != nil {
		server.Shutdown()
	}
	homeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	head.Home(homeCtx, panChannel)
}

// loadConfig resolves and loads the config file, falling back to defaults
// when none exists and no explicit path was given.
func loadConfig(explicit string) config.Config {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// buildHardware constructs the sensor probes and servo driver, real or
// simulated. Disabled sensors come back nil and read as disabled.
func buildHardware(cfg config.Config) (sensors.TempHumidityProber, sensors.DistanceProber, sensors.MotionProber, sensors.GasProber, actuator.Driver, error) {
	if cfg.Simulate {
		return hal.SimDHT{}, hal.SimUltrasonic{}, hal.SimPIR{}, hal.SimGas{}, hal.NewSimServoBank(), nil
	}

	if err := hal.Init(); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	var (
		dht    sensors.TempHumidityProber
		dist   sensors.DistanceProber
		motion sensors.MotionProber
		gas    sensors.GasProber
	)

	if cfg.Sensors.DHT.Enabled {
		model := hal.DHT11
		if cfg.Sensors.DHT.Model == "DHT22" {
			model = hal.DHT22
		}
		d, err := hal.NewDHT(cfg.Sensors.DHT.Pin, model)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("dht: %w", err)
		}
		dht = d
	}
	if cfg.Sensors.Ultrasonic.Enabled {
		u, err := hal.NewHCSR04(cfg.Sensors.Ultrasonic.TriggerPin, cfg.Sensors.Ultrasonic.EchoPin)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("ultrasonic: %w", err)
		}
		dist = u
	}
	if cfg.Sensors.PIR.Enabled {
		p, err := hal.NewPIR(cfg.Sensors.PIR.Pin)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("pir: %w", err)
		}
		motion = p
	}
	if cfg.Sensors.Gas.Enabled {
		g, err := hal.NewGasPin(cfg.Sensors.Gas.Pin, cfg.Sensors.Gas.ActiveLow)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("gas: %w", err)
		}
		gas = g
	}

	bank, err := hal.NewServoBank(cfg.Actuator.I2CBus, cfg.Actuator.Address)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("servo bank: %w", err)
	}

	return dht, dist, motion, gas, bank, nil
}

// eventsHub unwraps the server's hub; nil server means no broadcasting.
func eventsHub(s *web.Server) *hub.Hub {
	if s == nil {
		return nil
	}
	return s.Events()
}

// runConsole reads commands from stdin until EOF or shutdown.
func runConsole(ctx context.Context, router *command.Router) {
	fmt.Println("jarvis console, type a command (ctrl-d to quit)")
	scannerIn := bufio.NewScanner(os.Stdin)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scannerIn.Scan() {
			lines <- scannerIn.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			resp, err := router.Process(ctx, line)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("[%s] %s\n", resp.Decision.Mode, resp.Text)
		}
	}
}
