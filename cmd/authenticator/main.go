// The authenticator command runs the reference cloud authenticator: a
// secure channel listener serving bearer token verification and
// enrollment token issuance and redemption. It stands in for the cloud
// side in development and integration setups.
package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/waqasraz/ockam/cloud"
	"github.com/waqasraz/ockam/cmd/flags"
	"github.com/waqasraz/ockam/common"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/metrics"
	"github.com/waqasraz/ockam/securechannel"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:4000",
	Usage: "address to listen on for secure channels",
}

var flagIdentityFile = &cli.StringFlag{
	Name:  "identity-file",
	Usage: "PEM file with the authenticator's identity key; created if missing, ephemeral if unset",
}

var flagIdentityPublicFile = &cli.StringFlag{
	Name:  "identity-public-file",
	Usage: "write the identity public key PEM here on startup, for gateways to pin",
}

var flagBearerSecret = &cli.StringFlag{
	Name:     "bearer-secret",
	Required: true,
	Usage:    "HS256 secret project access tokens are signed with",
	EnvVars:  []string{"ENROLL_BEARER_SECRET"},
}

var flagTokenTTL = &cli.Int64Flag{
	Name:  "token-ttl-seconds",
	Value: 600,
	Usage: "seconds an issued enrollment token stays redeemable",
}

var flagFixedToken = &cli.StringFlag{
	Name:  "debug-fixed-token",
	Usage: "If provided every enrollment token request is answered with this value",
}

var flagMetricsAddr = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "",
	Usage: "address to listen on for Prometheus metrics, empty disables",
}

func main() {
	app := &cli.App{
		Name:  "enrollment-authenticator",
		Usage: "Serve the cloud-side enrollment and bearer authenticators",
		Flags: []cli.Flag{
			flagListenAddr,
			flagIdentityFile,
			flagIdentityPublicFile,
			flagBearerSecret,
			flagTokenTTL,
			flagFixedToken,
			flagMetricsAddr,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogUidFlag,
			flags.LogServiceFlagFn("enrollment-authenticator"),
		},
		Action: runAuthenticator,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAuthenticator(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	identity, err := loadIdentity(cCtx.String(flagIdentityFile.Name), logger)
	if err != nil {
		logger.Error("Failed to load identity", "err", err)
		return err
	}

	cfg := cloud.Config{
		BearerSecret: []byte(cCtx.String(flagBearerSecret.Name)),
		TokenTTL:     time.Duration(cCtx.Int64(flagTokenTTL.Name)) * time.Second,
		Log:          logger,
	}
	if fixed := cCtx.String(flagFixedToken.Name); fixed != "" {
		logger.Warn("Issuing a fixed enrollment token to every request")
		cfg.Issuer = cloud.FixedTokenIssuer{Token: enroll.Token(fixed)}
	}

	listener := securechannel.NewListener(identity, logger)
	cloud.New(cfg).Mount(listener)

	if publicFile := cCtx.String(flagIdentityPublicFile.Name); publicFile != "" {
		pemData := securechannel.EncodePublicKeyPEM(listener.PublicKey())
		if err := os.WriteFile(publicFile, pemData, 0o644); err != nil {
			logger.Error("Failed to write identity public key", "err", err)
			return err
		}
		logger.Info("Wrote identity public key", "file", publicFile)
	}

	ln, err := net.Listen("tcp", cCtx.String(flagListenAddr.Name))
	if err != nil {
		logger.Error("Failed to listen", "err", err)
		return err
	}

	metricsSrv, err := metrics.New(common.PackageName, cCtx.String(flagMetricsAddr.Name))
	if err != nil {
		logger.Error("Failed to create metrics server", "err", err)
		return err
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "err", err)
		}
	}()

	go func() {
		logger.Info("Authenticator is running", "listenAddr", ln.Addr().String())
		if err := listener.Serve(ln); err != nil {
			logger.Error("Listener failed", "err", err)
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	if err := listener.Close(); err != nil {
		logger.Warn("Failed to close listener", "err", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down metrics server", "err", err)
	}
	logger.Info("Authenticator shutdown complete")
	return nil
}

// loadIdentity reads the identity key from path, generating and
// persisting a fresh one when the file does not exist yet. An empty
// path yields an ephemeral identity.
func loadIdentity(path string, logger *slog.Logger) (*ecdsa.PrivateKey, error) {
	if path == "" {
		logger.Warn("No identity file configured, using an ephemeral identity")
		return securechannel.GenerateIdentity()
	}

	pemData, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		identity, err := securechannel.GenerateIdentity()
		if err != nil {
			return nil, err
		}
		encoded, err := securechannel.EncodeIdentityPEM(identity)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, encoded, 0o600); err != nil {
			return nil, err
		}
		logger.Info("Generated new identity", "file", path)
		return identity, nil
	} else if err != nil {
		return nil, err
	}

	return securechannel.DecodeIdentityPEM(pemData)
}
