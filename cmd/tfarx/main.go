// Command tfarx receives TFA 30.3215.02 temperature/humidity telemetry
// from a fixed-rate sampling dongle, decodes it, and serves the results
// over SCPI (TCP), a JSON API, sqlite history, and optionally MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rfsense/tfa433/internal/api"
	"github.com/rfsense/tfa433/internal/capture"
	"github.com/rfsense/tfa433/internal/db"
	"github.com/rfsense/tfa433/internal/mqtt"
	"github.com/rfsense/tfa433/internal/pulsestats"
	"github.com/rfsense/tfa433/internal/scpi"
	"github.com/rfsense/tfa433/internal/serialio"
	"github.com/rfsense/tfa433/internal/tfa"
	"github.com/rfsense/tfa433/internal/timeutil"
	"github.com/rfsense/tfa433/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (replay a fixture file instead of a dongle)")
	fixtures   = flag.String("fixtures", "fixtures.txt", "Sample stream fixture file for dev mode")
	listen     = flag.String("listen", ":8080", "HTTP API listen address")
	scpiAddr   = flag.String("scpi", ":5025", "SCPI listen address (empty to disable)")
	scpiPort   = flag.String("scpi-port", "", "Serve SCPI on this serial port as well (empty to disable)")
	port       = flag.String("port", "/dev/ttyUSB0", "Sampling dongle serial port (ignored in dev mode)")
	tick       = flag.Duration("tick", 50*time.Microsecond, "Dongle sampling tick period")
	poll       = flag.Duration("poll", 100*time.Millisecond, "Burst consumer poll interval")
	dbFile     = flag.String("db", "readings.db", "Reading history database (empty to disable)")
	migrations = flag.String("migrations", "", "Run database migrations from this directory before starting")
	mqttBroker = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://broker.local:1883 (empty to disable)")
	mqttTopic  = flag.String("mqtt-topic", "rtl_433/tfa", "MQTT topic prefix")
	unitsFlag  = flag.String("units", "c", "Default temperature units for the API (c, f, k)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	timing := tfa.DefaultTiming()
	timing.Tick = *tick
	rx := tfa.NewReceiver(timing)

	tap := make(chan int, 256)
	rx.SetPulseTap(tap)
	stats := pulsestats.NewCollector(timing)

	clock := timeutil.RealClock{}
	reg := tfa.NewRegistry(clock)

	// sample source: dongle serial port, or a recorded fixture in dev mode
	var samples io.ReadCloser
	if *devMode {
		f, err := os.Open(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		samples = f
	} else {
		p, err := serialio.Open(*port, serialio.DefaultMode())
		if err != nil {
			log.Fatalf("failed to open sampling dongle: %v", err)
		}
		samples = p
	}
	defer samples.Close()

	var database *db.DB
	if *dbFile != "" {
		var err error
		database, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		if *migrations != "" {
			if err := database.MigrateUp(*migrations); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	}

	var publisher *mqtt.Publisher
	if *mqttBroker != "" {
		var err error
		publisher, err = mqtt.Connect(mqtt.Config{
			Broker:      *mqttBroker,
			ClientID:    "tfarx",
			TopicPrefix: *mqttTopic,
		})
		if err != nil {
			log.Fatalf("failed to connect to MQTT broker: %v", err)
		}
		defer publisher.Close()
	}

	idn := fmt.Sprintf("TFA Dostmann 30.3215.02 radio interface, %s (%s)", version.Version, version.GitSHA)
	handler := scpi.NewHandler(reg, rx, idn)
	commands := scpi.NewServer(handler)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// sampling context: feeds the receiver one level per tick
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := capture.Stream(ctx, samples, rx.FeedSample); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("sample stream terminated: %v", err)
		}
		log.Print("sampling routine terminated")
	}()

	// diagnostics: drain the pulse tap
	wg.Add(1)
	go func() {
		defer wg.Done()
		stats.Run(ctx, tap)
	}()

	// best-effort consumer: burst -> consensus -> parse -> fan out
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := clock.NewTicker(*poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				consumeBursts(rx, reg, database, publisher, commands, clock)
			}
		}
	}()

	if *scpiAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := commands.ListenAndServe(ctx, *scpiAddr); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("SCPI server terminated: %v", err)
			}
		}()
	}

	if *scpiPort != "" {
		uart, err := serialio.Open(*scpiPort, serialio.DefaultMode())
		if err != nil {
			log.Fatalf("failed to open SCPI serial port: %v", err)
		}
		go func() {
			<-ctx.Done()
			uart.Close()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := commands.Serve(uart); err != nil && ctx.Err() == nil {
				log.Printf("SCPI serial port terminated: %v", err)
			}
		}()
	}

	apiServer := api.NewServer(reg, database, stats, *unitsFlag)
	httpServer := &http.Server{Addr: *listen, Handler: apiServer.Routes()}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("%s", idn)
	log.Printf("listening on %s (HTTP), %s (SCPI)", *listen, *scpiAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}
	wg.Wait()
}

// consumeBursts drains every burst the receiver has completed since the
// last poll and runs it through consensus and parsing.
func consumeBursts(rx *tfa.Receiver, reg *tfa.Registry, database *db.DB, publisher *mqtt.Publisher, commands *scpi.Server, clock timeutil.Clock) {
	for {
		burst := rx.TryTakeBurst()
		if burst == nil {
			return
		}
		winner, ok := tfa.ResolveBurst(burst)
		if !ok {
			log.Printf("burst of %d repetitions was ambiguous, waiting for retransmission", len(burst))
			continue
		}
		reading, err := tfa.Parse(winner)
		if err != nil {
			log.Printf("discarding packet: %v", err)
			continue
		}

		reg.Apply(reading)

		if database != nil {
			if _, err := database.RecordReading(reading, clock.Now()); err != nil {
				log.Printf("failed to record reading: %v", err)
			}
		}
		if publisher != nil {
			if err := publisher.Publish(reading, clock.Now()); err != nil {
				log.Printf("failed to publish reading: %v", err)
			}
		}
		if commands.Handler().Talk() {
			commands.Broadcast(scpi.FormatReading(reading, commands.Handler().Head()))
			reg.Ack(0)
		}
	}
}
