package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups tailr's secrets in the OS keychain.
	KeyringService = "tailr"

	// TokenEnv overrides the keychain, for CI and headless machines.
	TokenEnv = "TAILR_SERVICE_TOKEN"
)

func account(name string) string {
	return "tailr:service:" + strings.TrimSpace(name)
}

// ServiceToken returns the tailoring service token: the environment first,
// then the keychain. A missing token is "" with no error.
func ServiceToken(keyringAccount string) (string, error) {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		return tok, nil
	}
	if strings.TrimSpace(keyringAccount) == "" {
		return "", nil
	}

	tok, err := keyring.Get(KeyringService, account(keyringAccount))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keychain lookup failed: %w", err)
	}
	return strings.TrimSpace(tok), nil
}

func SetServiceToken(keyringAccount, token string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, account(keyringAccount), strings.TrimSpace(token))
}

func DeleteServiceToken(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account(keyringAccount))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
