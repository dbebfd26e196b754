package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/adapters/secrets"
	"github.com/kevin07696/mpesa-stk/internal/domain"
	"go.uber.org/zap"
)

// Secret manager kinds accepted in SECRET_MANAGER
const (
	SecretManagerEnv   = "env"
	SecretManagerLocal = "local"
	SecretManagerAWS   = "aws"
	SecretManagerVault = "vault"
)

// NewSecretManager builds the secret manager selected by cfg.Manager.
// It returns nil for "env", where credentials come straight from the environment.
//
// Supported managers:
//   - env: MPESA_CONSUMER_SECRET and MPESA_PASSKEY are read directly (default)
//   - local: files under SECRETS_LOCAL_PATH (development only)
//   - aws: AWS Secrets Manager in AWS_REGION, optionally AWS_PROFILE / AWS_SECRETS_ENDPOINT
//   - vault: HashiCorp Vault at VAULT_ADDR with VAULT_TOKEN
func NewSecretManager(ctx context.Context, cfg SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Manager {
	case "", SecretManagerEnv:
		return nil, nil
	case SecretManagerLocal:
		logger.Warn("Using LOCAL secret manager - NOT for production use!",
			zap.String("base_path", cfg.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil
	case SecretManagerAWS:
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		if cfg.CacheTTL > 0 {
			awsCfg.CacheTTL = cfg.CacheTTL
		}
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigError, "failed to initialize AWS Secrets Manager", err)
		}
		return sm, nil
	case SecretManagerVault:
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddr)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.MountPath = cfg.VaultMount
		if cfg.CacheTTL > 0 {
			vaultCfg.CacheTTL = cfg.CacheTTL
		}
		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigError, "failed to initialize Vault", err)
		}
		return sm, nil
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeConfigError,
			fmt.Sprintf("unknown SECRET_MANAGER %q", cfg.Manager))
	}
}

// ResolveCredentials fills the consumer secret and passkey from the secret
// manager. A nil manager leaves the environment values in place. Values
// already set in the environment are overwritten.
func ResolveCredentials(ctx context.Context, cfg *MPesaConfig, sm ports.SecretManagerAdapter) error {
	if sm == nil {
		return nil
	}

	secret, err := sm.GetSecret(ctx, cfg.ConsumerSecretPath)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeConfigError, "failed to resolve consumer secret", err).
			WithDetail("path", cfg.ConsumerSecretPath)
	}
	cfg.ConsumerSecret = strings.TrimSpace(secret.Value)

	if cfg.PasskeyPath != "" {
		passkey, err := sm.GetSecret(ctx, cfg.PasskeyPath)
		if err != nil {
			return domain.WrapError(domain.ErrorCodeConfigError, "failed to resolve passkey", err).
				WithDetail("path", cfg.PasskeyPath)
		}
		cfg.Passkey = strings.TrimSpace(passkey.Value)
	}

	return nil
}
