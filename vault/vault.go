package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Vault reads service secrets (payment keys, webhook access passes) from a
// kv mount, so they stay out of config files.
type Vault struct {
	SecretPath string
	*api.Client
}

func New(token, unsealKey, address, secretPath string) (*Vault, error) {
	config := &api.Config{
		Address: address,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("new: error initializing vault: %w", err)
	}

	client.SetToken(token)

	s := client.Sys()
	status, err := s.SealStatus()
	if err != nil {
		return nil, fmt.Errorf("new: error getting seal status: %w", err)
	}

	if status.Sealed {
		unsealResponse, err := s.Unseal(unsealKey)
		if err != nil {
			return nil, fmt.Errorf("new: error getting unseal response: %w", err)
		}
		if unsealResponse.Sealed {
			return nil, fmt.Errorf("new: vault unseal unsuccesfull")
		}
	}

	return &Vault{SecretPath: secretPath, Client: client}, nil
}

// Secrets reads every string field stored at the configured path.
func (v *Vault) Secrets() (map[string]string, error) {
	secret, err := v.Logical().Read(v.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("secrets: error reading %s: %w", v.SecretPath, err)
	}

	out := map[string]string{}
	if secret == nil {
		return out, nil
	}
	for key, value := range secret.Data {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out, nil
}
