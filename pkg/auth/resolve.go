package auth

import (
	"fmt"

	"witsbot/pkg/config"
)

// Resolve fills in missing portal credentials from the manager. Credentials
// already present in cfg are left alone. When cfg names only an email, the
// saved account for that email is used.
func Resolve(cfg *config.Config, m *Manager) error {
	if cfg.HasCredentials() {
		return nil
	}
	if m == nil {
		return ErrCredentialsNotFound
	}

	var (
		account *Account
		err     error
	)
	if cfg.Credentials.Email != "" {
		account, err = m.Retrieve(cfg.Credentials.Email)
	} else {
		account, err = m.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no portal credentials configured: %w", err)
	}

	cfg.Credentials.Email = account.Email
	cfg.Credentials.Password = account.Password
	return nil
}
