/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// cmd/fleet-faker publishes a synthetic turbine fleet for fleetwatch.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/fleetwatch/pkg/app"
	"github.com/carverauto/fleetwatch/pkg/lifecycle"
)

var (
	errDevicesRequired = errors.New("-devices must be > 0")
	errRateRequired    = errors.New("-rate must be > 0")
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	devices := flag.Int("devices", defaultDevices, "Number of simulated devices")
	rate := flag.Duration("rate", time.Second, "Telemetry publish interval")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	if *devices <= 0 {
		log.Fatal(errDevicesRequired)
	}

	if *rate <= 0 {
		log.Fatal(errRateRequired)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.Load(ctx, *configPath, nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := lifecycle.CreateComponentLogger("fleet-faker", cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	sim := NewSimulator(cfg, *devices, *seed, logger)

	if err := sim.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed metadata store: %v", err)
	}

	if err := sim.Run(ctx, *rate); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Simulator failed: %v", err)
	}
}
