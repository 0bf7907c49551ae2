// The enroll command exercises an enrollment gateway from the command
// line: minting enrollment tokens, redeeming them, and authenticating
// bearer tokens sourced from a flag or from Vault.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/waqasraz/ockam/client"
	"github.com/waqasraz/ockam/cmd/flags"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/interfaces"
	"github.com/waqasraz/ockam/tokenprovider"
)

var flagAttribute = &cli.StringSliceFlag{
	Name:    "attribute",
	Aliases: []string{"a"},
	Usage:   "attribute to bind to the token as key=value, repeatable",
}

var flagToken = &cli.StringFlag{
	Name:     "token",
	Required: true,
	Usage:    "enrollment token to redeem",
}

var flagAccessToken = &cli.StringFlag{
	Name:    "access-token",
	Usage:   "bearer access token to authenticate with",
	EnvVars: []string{"ENROLL_ACCESS_TOKEN"},
}

var flagVaultAddr = &cli.StringFlag{
	Name:  "vault-addr",
	Usage: "Vault address to read the access token from instead of --access-token",
}
var flagVaultToken = &cli.StringFlag{
	Name:    "vault-token",
	Usage:   "Vault auth token",
	EnvVars: []string{"VAULT_TOKEN"},
}
var flagVaultMount = &cli.StringFlag{
	Name:  "vault-mount",
	Value: "secret",
	Usage: "Vault KV v2 mount holding the access token",
}
var flagVaultPath = &cli.StringFlag{
	Name:  "vault-path",
	Value: "enrollment",
	Usage: "path within the Vault mount holding the access token",
}
var flagVaultField = &cli.StringFlag{
	Name:  "vault-field",
	Value: "access_token",
	Usage: "key inside the Vault secret data holding the access token",
}

func main() {
	app := &cli.App{
		Name:  "enroll",
		Usage: "Request, redeem and authenticate enrollment credentials through a gateway",
		Flags: []cli.Flag{
			flags.GatewayAddrFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "request-token",
				Usage: "Mint an enrollment token bound to the given attributes",
				Flags: []cli.Flag{
					flagAttribute,
				},
				Action: func(cCtx *cli.Context) error {
					attrs, err := parseAttributes(cCtx.StringSlice(flagAttribute.Name))
					if err != nil {
						return err
					}
					return NewClientConfig(cCtx).RequestToken(cCtx.Context, attrs)
				},
			},
			{
				Name:  "enroll",
				Usage: "Redeem a previously minted enrollment token",
				Flags: []cli.Flag{
					flagToken,
				},
				Action: func(cCtx *cli.Context) error {
					token, err := enroll.NewToken(cCtx.String(flagToken.Name))
					if err != nil {
						return err
					}
					return NewClientConfig(cCtx).Enroll(cCtx.Context, token)
				},
			},
			{
				Name:  "authenticate",
				Usage: "Authenticate a bearer access token and print its attributes",
				Flags: []cli.Flag{
					flagAccessToken,
					flagVaultAddr,
					flagVaultToken,
					flagVaultMount,
					flagVaultPath,
					flagVaultField,
				},
				Action: func(cCtx *cli.Context) error {
					provider, err := configureTokenProvider(cCtx)
					if err != nil {
						return err
					}
					return NewClientConfig(cCtx).Authenticate(cCtx.Context, provider)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client wraps the gateway client with output formatting for the CLI.
type Client struct {
	Gateway *client.GatewayClient
}

func NewClientConfig(cCtx *cli.Context) *Client {
	return &Client{
		Gateway: client.NewGatewayClient(cCtx.String(flags.GatewayAddrFlag.Name)),
	}
}

func (c *Client) RequestToken(ctx context.Context, attrs enroll.Attributes) error {
	token, err := c.Gateway.RequestEnrollmentToken(ctx, attrs)
	if err != nil {
		return fmt.Errorf("enrollment token request failed: %w", err)
	}

	encoded, _ := json.Marshal(struct {
		Token string `json:"token"`
	}{Token: token.Token.String()})
	fmt.Println(string(encoded))
	return nil
}

func (c *Client) Enroll(ctx context.Context, token enroll.Token) error {
	if err := c.Gateway.AuthenticateEnrollmentToken(ctx, token); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Println(`{"enrolled":true}`)
	return nil
}

func (c *Client) Authenticate(ctx context.Context, provider interfaces.TokenProvider) error {
	bearerToken, err := provider.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("could not obtain access token: %w", err)
	}

	attrs, err := c.Gateway.AuthenticateBearer(ctx, bearerToken)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	encoded, _ := json.Marshal(attrs)
	fmt.Println(string(encoded))
	return nil
}

// configureTokenProvider picks the access token source: the flag value
// when given, otherwise Vault.
func configureTokenProvider(cCtx *cli.Context) (interfaces.TokenProvider, error) {
	if accessToken := cCtx.String(flagAccessToken.Name); accessToken != "" {
		return tokenprovider.NewStatic(enroll.Token(accessToken))
	}
	if cCtx.String(flagVaultAddr.Name) == "" {
		return nil, errors.New("either --access-token or --vault-addr is required")
	}

	return tokenprovider.NewVault(tokenprovider.VaultConfig{
		Address:    cCtx.String(flagVaultAddr.Name),
		AuthToken:  cCtx.String(flagVaultToken.Name),
		MountPath:  cCtx.String(flagVaultMount.Name),
		SecretPath: cCtx.String(flagVaultPath.Name),
		Field:      cCtx.String(flagVaultField.Name),
	})
}

// parseAttributes turns repeated key=value flags into an attribute set.
func parseAttributes(pairs []string) (enroll.Attributes, error) {
	attrs := enroll.Attributes{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("attribute must be key=value, got %q", pair)
		}
		attrs[key] = value
	}
	return attrs, nil
}
