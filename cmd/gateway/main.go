// The gateway command runs the enrollment gateway: an HTTP envelope API
// that forwards enrollment operations to the cloud authenticators over
// request-scoped secure channels.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/waqasraz/ockam/cmd/flags"
	"github.com/waqasraz/ockam/gateway"
	"github.com/waqasraz/ockam/httpserver"
	"github.com/waqasraz/ockam/interfaces"
	"github.com/waqasraz/ockam/securechannel"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var flagDialTimeout = &cli.Int64Flag{
	Name:  "dial-seconds",
	Value: 10,
	Usage: "seconds to wait for the cloud to accept a channel",
}

func main() {
	app := &cli.App{
		Name:  "enrollment-gateway",
		Usage: "Serve the enrollment API, forwarding to the cloud over secure channels",
		Flags: append([]cli.Flag{
			flagListenAddr,
			flags.CloudRouteFlag,
			flags.CloudIdentityFlag,
			flags.DnsServerFlag,
			flagDialTimeout,
			flags.LogServiceFlagFn("enrollment-gateway"),
		}, flags.CommonFlags...),
		Action: runGateway,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runGateway(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	route, err := interfaces.NewRoute(cCtx.String(flags.CloudRouteFlag.Name))
	if err != nil {
		logger.Error("Invalid cloud route", "err", err)
		return err
	}

	dialerCfg := securechannel.DialerConfig{
		DialTimeout: time.Duration(cCtx.Int64(flagDialTimeout.Name)) * time.Second,
		Resolver:    securechannel.NewResolver(securechannel.ResolverConfig{Server: cCtx.String(flags.DnsServerFlag.Name)}),
		Log:         logger,
	}
	if identityFile := cCtx.String(flags.CloudIdentityFlag.Name); identityFile != "" {
		pemData, err := os.ReadFile(identityFile)
		if err != nil {
			logger.Error("Failed to read cloud identity file", "err", err)
			return err
		}
		identity, err := securechannel.DecodePublicKeyPEM(pemData)
		if err != nil {
			logger.Error("Failed to parse cloud identity file", "err", err)
			return fmt.Errorf("could not parse cloud identity: %w", err)
		}
		dialerCfg.PinnedIdentity = identity
		logger.Info("Pinning cloud identity", "file", identityFile)
	}

	gw := gateway.New(securechannel.NewDialer(dialerCfg), route, logger)
	handler := httpserver.NewHandler(gw, logger)

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting gateway", "listenAddr", cfg.ListenAddr, "route", route.String())
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Gateway shutdown complete")
	return nil
}
