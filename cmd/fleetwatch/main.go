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

package main

import (
	"context"
	"flag"
	"log"

	"github.com/carverauto/fleetwatch/pkg/app"
	"github.com/carverauto/fleetwatch/pkg/lifecycle"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := app.Load(ctx, *configPath, nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := lifecycle.CreateComponentLogger("fleetwatch", cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	opts := &lifecycle.ServerOptions{
		ServiceName: "fleetwatch",
		Service:     app.New(cfg, logger),
		Logger:      logger,
	}

	if err := lifecycle.RunServer(ctx, opts); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
