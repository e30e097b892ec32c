package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"
)

// ErrSecretNotFound is returned by GetSecret when the path holds no data
var ErrSecretNotFound = errors.New("secret not found")

// Client wraps HashiCorp Vault API
type Client struct {
	client       *api.Client
	transitMount string
	kvMount      string
}

// Config holds Vault configuration
type Config struct {
	Address      string
	Token        string
	TransitMount string
	KVMount      string
}

// NewClient creates a new Vault client and makes sure the transit engine is mounted
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	vaultClient := &Client{
		client:       client,
		transitMount: cfg.TransitMount,
		kvMount:      cfg.KVMount,
	}

	if err := vaultClient.initTransitEngine(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize transit engine: %w", err)
	}

	return vaultClient, nil
}

// initTransitEngine enables the transit secrets engine if not already enabled
func (c *Client) initTransitEngine(ctx context.Context) error {
	mounts, err := c.client.Sys().ListMountsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mounts: %w", err)
	}

	if _, exists := mounts[c.transitMount+"/"]; exists {
		return nil
	}

	err = c.client.Sys().MountWithContext(ctx, c.transitMount, &api.MountInput{
		Type:        "transit",
		Description: "Transit encryption for Review Central",
	})
	if err != nil {
		return fmt.Errorf("failed to mount transit engine: %w", err)
	}

	return nil
}

// EnsureKey creates a derived aes256-gcm96 transit key if it does not exist.
// Derived keys require a context on every encrypt/decrypt call.
func (c *Client) EnsureKey(ctx context.Context, keyName string) error {
	path := fmt.Sprintf("%s/keys/%s", c.transitMount, keyName)

	existing, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to read key %s: %w", keyName, err)
	}
	if existing != nil {
		return nil
	}

	data := map[string]any{
		"type":       "aes256-gcm96",
		"exportable": false,
		"derived":    true,
	}
	if _, err := c.client.Logical().WriteWithContext(ctx, path, data); err != nil {
		return fmt.Errorf("failed to create key %s: %w", keyName, err)
	}

	return nil
}

// Encrypt encrypts plaintext with the named transit key. keyContext is
// bound to the ciphertext and must be passed again to Decrypt.
func (c *Client) Encrypt(ctx context.Context, keyName string, plaintext, keyContext []byte) (string, error) {
	path := fmt.Sprintf("%s/encrypt/%s", c.transitMount, keyName)

	data := map[string]any{
		"plaintext": base64.StdEncoding.EncodeToString(plaintext),
	}
	if len(keyContext) > 0 {
		data["context"] = base64.StdEncoding.EncodeToString(keyContext)
	}

	secret, err := c.client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	if secret == nil {
		return "", fmt.Errorf("empty encrypt response")
	}

	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return "", fmt.Errorf("invalid ciphertext response")
	}

	return ciphertext, nil
}

// Decrypt reverses Encrypt
func (c *Client) Decrypt(ctx context.Context, keyName, ciphertext string, keyContext []byte) ([]byte, error) {
	path := fmt.Sprintf("%s/decrypt/%s", c.transitMount, keyName)

	data := map[string]any{
		"ciphertext": ciphertext,
	}
	if len(keyContext) > 0 {
		data["context"] = base64.StdEncoding.EncodeToString(keyContext)
	}

	secret, err := c.client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("empty decrypt response")
	}

	encodedPlaintext, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid plaintext response")
	}

	plaintext, err := base64.StdEncoding.DecodeString(encodedPlaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plaintext: %w", err)
	}

	return plaintext, nil
}

// StoreSecret stores a secret in the KV v2 engine
func (c *Client) StoreSecret(ctx context.Context, path string, data map[string]any) error {
	if _, err := c.client.KVv2(c.kvMount).Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// GetSecret retrieves a secret from the KV v2 engine
func (c *Client) GetSecret(ctx context.Context, path string) (map[string]any, error) {
	secret, err := c.client.KVv2(c.kvMount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, ErrSecretNotFound
	}
	return secret.Data, nil
}

// GetString reads a single string field of a KV secret. A missing secret
// or field yields "" without error.
func (c *Client) GetString(ctx context.Context, path, field string) (string, error) {
	data, err := c.GetSecret(ctx, path)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	value, _ := data[field].(string)
	return value, nil
}

// Health checks Vault health status
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
