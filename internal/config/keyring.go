package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "InternHub"

	// KeyringOpenAIKeyItem holds the OpenAI API key
	KeyringOpenAIKeyItem = "openai-api-key"

	// KeyringGeminiKeyItem holds the Gemini API key
	KeyringGeminiKeyItem = "gemini-api-key"

	// KeyringGitHubTokenItem holds the GitHub token
	KeyringGitHubTokenItem = "github-token"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *logrus.Entry
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: logrus.WithField("component", "keyring"),
	}
}

// SaveAPIKey stores an API key under item in the OS keychain
func (km *KeyringManager) SaveAPIKey(item, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}

	if err := keyring.Set(KeyringService, item, apiKey); err != nil {
		km.logger.WithError(err).WithField("item", item).Error("failed to save secret to keychain")
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.WithField("item", item).Info("secret saved to keychain")
	return nil
}

// GetAPIKey retrieves an API key from the OS keychain. A missing entry
// returns "" without error.
func (km *KeyringManager) GetAPIKey(item string) (string, error) {
	apiKey, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("item", item).Error("failed to get secret from keychain")
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return apiKey, nil
}

// DeleteAPIKey removes an API key from the OS keychain
func (km *KeyringManager) DeleteAPIKey(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// GetGitHubToken retrieves GitHub token from OS keychain
func (km *KeyringManager) GetGitHubToken() (string, error) {
	return km.GetAPIKey(KeyringGitHubTokenItem)
}

// SetGitHubToken stores GitHub token securely in OS keychain
func (km *KeyringManager) SetGitHubToken(token string) error {
	return km.SaveAPIKey(KeyringGitHubTokenItem, token)
}

// IsAvailable checks if OS keychain is available.
// Returns false on headless systems (CI/CD) where keychain isn't available.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == nil || err == keyring.ErrNotFound {
		return true
	}
	km.logger.WithError(err).Debug("keychain not available")
	return false
}

// MaskAPIKey masks an API key for display.
// Shows first 7 chars and last 4 chars: "sk-proj...abc123"
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}
