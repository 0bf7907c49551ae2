package tokenprovider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/waqasraz/ockam/enroll"
)

const defaultTokenField = "access_token"

// VaultConfig locates a bearer token inside a Vault KV v2 secret.
type VaultConfig struct {
	// Address is the Vault server address, e.g. https://vault.example.com:8200.
	Address string

	// AuthToken authenticates this client to Vault. Empty defers to
	// the client's environment (VAULT_TOKEN).
	AuthToken string

	// MountPath is the KV v2 mount, e.g. "secret".
	MountPath string

	// SecretPath is the path within the mount holding the token.
	SecretPath string

	// Field is the key inside the secret data. Empty selects
	// "access_token".
	Field string

	Log *slog.Logger
}

// Vault fetches the bearer token from a Vault KV v2 secret on every
// request, picking up rotations without restarts.
type Vault struct {
	client     *api.Client
	mountPath  string
	secretPath string
	field      string
	log        *slog.Logger
}

// NewVault creates a provider reading from the configured secret.
func NewVault(cfg VaultConfig) (*Vault, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.AuthToken != "" {
		client.SetToken(cfg.AuthToken)
	}

	field := cfg.Field
	if field == "" {
		field = defaultTokenField
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Vault{
		client:     client,
		mountPath:  strings.Trim(cfg.MountPath, "/"),
		secretPath: strings.Trim(cfg.SecretPath, "/"),
		field:      field,
		log:        log,
	}, nil
}

// AccessToken reads the secret and extracts the token field.
func (p *Vault) AccessToken(ctx context.Context) (enroll.BearerToken, error) {
	// Vault KV v2 path structure
	path := fmt.Sprintf("%s/data/%s", p.mountPath, p.secretPath)

	secret, err := p.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		p.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return enroll.BearerToken{}, fmt.Errorf("failed to read access token from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return enroll.BearerToken{}, fmt.Errorf("no secret at Vault path %s", path)
	}

	// Extract data from the response (KV v2 format)
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return enroll.BearerToken{}, fmt.Errorf("invalid data format in Vault response")
	}
	value, ok := data[p.field].(string)
	if !ok {
		return enroll.BearerToken{}, fmt.Errorf("field %s not found in Vault secret", p.field)
	}

	token, err := enroll.NewToken(value)
	if err != nil {
		return enroll.BearerToken{}, fmt.Errorf("invalid access token in Vault secret: %w", err)
	}
	p.log.Debug("Fetched access token from Vault", slog.String("path", path))
	return enroll.NewBearerToken(token), nil
}
