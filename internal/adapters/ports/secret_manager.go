package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., consumer secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving M-Pesa credentials from a secret store
// Supports multiple backends: local files, AWS Secrets Manager, HashiCorp Vault
// Implementations cache secrets with a TTL.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - Local: "mpesa/consumer_secret" (file under the base directory)
	//   - AWS: "mpesa-stk/consumer_secret"
	//   - Vault: "mpesa-stk/credentials" under the KV v2 mount
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
