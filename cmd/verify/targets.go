package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwessel/relais/pkg/vault"
	"github.com/mwessel/relais/pkg/verify"
)

func vaultCmd() *cobra.Command {
	var (
		addr      string
		token     string
		tokenFile string
		mount     string
		path      string
		key       string
		value     string
	)

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Verify Vault with a KV put/get round-trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := vaultClient(addr, token, tokenFile, mount)
			if err != nil {
				return err
			}
			return verify.Vault(cmd.Context(), verify.VaultOptions{
				Client: client,
				Path:   path,
				Key:    key,
				Value:  value,
				Poller: poller(),
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOrDefault("RELAIS_VAULT_ADDR", "http://vault:8200"), "Vault address")
	cmd.Flags().StringVar(&token, "token", os.Getenv("RELAIS_VAULT_TOKEN"), "Vault token")
	cmd.Flags().StringVar(&tokenFile, "token-file", os.Getenv("RELAIS_VAULT_TOKEN_FILE"), "file holding the Vault token")
	cmd.Flags().StringVar(&mount, "mount", envOrDefault("RELAIS_VAULT_MOUNT", "secret"), "KV mount name")
	cmd.Flags().StringVar(&path, "path", envOrDefault("RELAIS_VAULT_PATH", "relais/verify"), "secret path for the probe")
	cmd.Flags().StringVar(&key, "key", "verify", "field name written and read back")
	cmd.Flags().StringVar(&value, "value", "", "probe value (random when empty)")

	cmd.AddCommand(vaultGetCmd(&addr, &token, &tokenFile, &mount))
	return cmd
}

// vaultGetCmd reads a single secret field and prints it. The flags of the
// parent command configure the connection; the path and key are arguments
// so the command composes in shell scripts.
func vaultGetCmd(addr, token, tokenFile, mount *string) *cobra.Command {
	var (
		asJSON   bool
		asExport bool
	)

	cmd := &cobra.Command{
		Use:   "get <path> <key>",
		Short: "Read one secret field and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := vaultClient(*addr, *token, *tokenFile, *mount)
			if err != nil {
				return err
			}
			value, err := verify.VaultGet(cmd.Context(), client, args[0], args[1])
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				out, err := json.Marshal(map[string]string{args[1]: value})
				if err != nil {
					return verify.Parsef("encoding output: %v", err)
				}
				fmt.Println(string(out))
			case asExport:
				fmt.Printf("export %s=%q\n", args[1], value)
			default:
				fmt.Println(value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as a JSON object")
	cmd.Flags().BoolVar(&asExport, "export", false, "print as a shell export statement")
	return cmd
}

func vaultClient(addr, token, tokenFile, mount string) (*vault.Client, error) {
	if token == "" && tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, verify.Dependencyf("reading vault token file: %v", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return nil, verify.Dependencyf("no vault token: set --token or --token-file")
	}
	return vault.New(vault.Config{
		Addr:    addr,
		Token:   token,
		Mount:   mount,
		Timeout: flagTimeout,
	}), nil
}

func keycloakCmd() *cobra.Command {
	var opts verify.KeycloakOptions

	cmd := &cobra.Command{
		Use:   "keycloak",
		Short: "Verify Keycloak with a password-grant token exchange",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Timeout = flagTimeout
			opts.Poller = poller()
			return verify.Keycloak(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "url", envOrDefault("RELAIS_KEYCLOAK_URL", "http://keycloak:8080"), "Keycloak base URL")
	cmd.Flags().StringVar(&opts.Realm, "realm", envOrDefault("RELAIS_KEYCLOAK_REALM", "llm"), "realm name")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", envOrDefault("RELAIS_KEYCLOAK_CLIENT_ID", "verify"), "OIDC client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", os.Getenv("RELAIS_KEYCLOAK_CLIENT_SECRET"), "OIDC client secret (empty for public clients)")
	cmd.Flags().StringVar(&opts.Username, "username", envOrDefault("RELAIS_KEYCLOAK_USERNAME", "verify"), "test user name")
	cmd.Flags().StringVar(&opts.Password, "password", os.Getenv("RELAIS_KEYCLOAK_PASSWORD"), "test user password")
	return cmd
}

func litellmCmd() *cobra.Command {
	var opts verify.LiteLLMOptions

	cmd := &cobra.Command{
		Use:   "litellm",
		Short: "Verify the LiteLLM MCP REST surface with a tool round-trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Timeout = flagTimeout
			opts.Poller = poller()
			return verify.LiteLLM(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "url", envOrDefault("RELAIS_LITELLM_URL", "http://litellm:4000"), "LiteLLM base URL")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", os.Getenv("RELAIS_LITELLM_API_KEY"), "bearer key for the gateway")
	cmd.Flags().StringVar(&opts.Key, "key", "", "probe key")
	cmd.Flags().StringVar(&opts.Value, "value", "", "probe value (random when empty)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "probe group")
	return cmd
}

func mcpCmd() *cobra.Command {
	var opts verify.MCPOptions

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Verify the datagroup MCP server end to end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Poller = poller()
			return verify.MCP(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", envOrDefault("RELAIS_MCP_URL", "http://datagroup:9123/mcp"), "streamable HTTP endpoint")
	cmd.Flags().StringVar(&opts.Key, "key", "", "probe key")
	cmd.Flags().StringVar(&opts.Value, "value", "", "probe value (random when empty)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "probe group")
	cmd.Flags().BoolVar(&opts.HealthCheck, "health-check", false, "connect and round-trip only, skip the access scenarios")
	return cmd
}

func adapterCmd() *cobra.Command {
	var opts verify.AdapterOptions

	cmd := &cobra.Command{
		Use:   "adapter",
		Short: "Verify the OpenWebUI adapter with a path-shaped tool round-trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Timeout = flagTimeout
			opts.Poller = poller()
			return verify.Adapter(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "url", envOrDefault("RELAIS_ADAPTER_URL", "http://adapter:8088"), "adapter base URL")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", os.Getenv("RELAIS_ADAPTER_API_KEY"), "bearer key presented to the adapter")
	cmd.Flags().StringVar(&opts.Key, "key", "", "probe key")
	cmd.Flags().StringVar(&opts.Value, "value", "", "probe value (random when empty)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "probe group")
	return cmd
}

// allCmd runs every verifier in dependency order and reports the first
// failure. The exit code of the failing stage is preserved.
func allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every verifier in dependency order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages := []struct {
				name string
				cmd  *cobra.Command
			}{
				{"vault", vaultCmd()},
				{"keycloak", keycloakCmd()},
				{"litellm", litellmCmd()},
				{"mcp", mcpCmd()},
				{"adapter", adapterCmd()},
			}
			for _, stage := range stages {
				slog.Info("verifying", slog.String("stage", stage.name))
				stage.cmd.SetContext(cmd.Context())
				if err := stage.cmd.RunE(stage.cmd, nil); err != nil {
					return fmt.Errorf("%s: %w", stage.name, err)
				}
				slog.Info("stage verified", slog.String("stage", stage.name))
			}
			return nil
		},
	}
}
