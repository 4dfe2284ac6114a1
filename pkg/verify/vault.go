package verify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mwessel/relais/pkg/vault"
)

// VaultOptions configures the Vault verifier.
type VaultOptions struct {
	Client *vault.Client
	Path   string // logical secret path, e.g. "relais/verify"
	Key    string // field name written and read back
	Value  string // probe value; random when empty
	Poller Poller
	Logger *slog.Logger
}

// Vault verifies the Vault KV store with a put/get round-trip:
// health poll, write a probe value, read it back, compare byte-exact.
func Vault(ctx context.Context, opts VaultOptions) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Key == "" {
		opts.Key = "verify"
	}
	if opts.Value == "" {
		opts.Value = RandomProbeValue()
	}

	err := opts.Poller.Await(ctx, "vault", func(ctx context.Context) (bool, string) {
		if err := opts.Client.Health(ctx); err != nil {
			return false, err.Error()
		}
		return true, "healthy"
	})
	if err != nil {
		return err
	}

	if err := opts.Client.Put(ctx, opts.Path, map[string]string{opts.Key: opts.Value}); err != nil {
		return Connectivityf("writing probe secret: %v", err)
	}
	opts.Logger.Info("probe secret written", slog.String("path", opts.Path), slog.String("key", opts.Key))

	got, err := opts.Client.Get(ctx, opts.Path, opts.Key)
	if err != nil {
		if errors.Is(err, vault.ErrKeyNotFound) {
			return Parsef("probe key %q missing after write", opts.Key)
		}
		return Connectivityf("reading probe secret: %v", err)
	}

	if got != opts.Value {
		return Mismatch(opts.Value, got)
	}

	opts.Logger.Info("vault round-trip verified", slog.String("path", opts.Path))
	return nil
}

// VaultGet reads a single key, classifying failures with the same exit
// codes the original tooling used: connectivity errors exit 2, a missing
// key exits 3.
func VaultGet(ctx context.Context, client *vault.Client, path, key string) (string, error) {
	value, err := client.Get(ctx, path, key)
	if err != nil {
		if errors.Is(err, vault.ErrKeyNotFound) {
			return "", Parsef("key %q not found at %s", key, path)
		}
		return "", Connectivityf("reading %s: %v", path, err)
	}
	return value, nil
}
