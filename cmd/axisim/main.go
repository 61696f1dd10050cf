// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command axisim runs stream simulation scenarios.
//
// Run a scenario file and print the packets received on every output:
//
//	axisim -config scenario.toml
//
// Serve scenario runs and metrics over HTTP:
//
//	axisim -serve :8080
//
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/db47h/axisim/internal/config"
	"github.com/db47h/axisim/internal/logging"
	"github.com/db47h/axisim/internal/scenario"
	"github.com/db47h/axisim/internal/server"
	"github.com/rs/zerolog"
)

func main() {
	cfgPath := flag.String("config", "", "scenario file to run")
	addr := flag.String("serve", "", "serve HTTP on this address instead of running a scenario")
	flag.Parse()

	log := logging.Runtime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *addr != "":
		err = serve(ctx, log, *addr)
	case *cfgPath != "":
		err = runFile(ctx, log, *cfgPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("axisim failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, log zerolog.Logger, addr string) error {
	s, err := server.New(log)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx, addr)
}

func runFile(ctx context.Context, log zerolog.Logger, path string) error {
	sc, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := scenario.Run(ctx, sc, log, nil)
	if res != nil {
		for i, o := range res.Outputs {
			for j, p := range o {
				fmt.Printf("out%d[%d]: % x\n", i, j, []byte(p))
			}
		}
	}
	return err
}
