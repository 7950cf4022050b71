package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// CredentialPrompter collects secrets interactively for `internhub configure`
// and stores them in the OS keychain.
type CredentialPrompter struct {
	keyring *KeyringManager
	in      io.Reader
	out     io.Writer
	fd      int
}

// NewCredentialPrompter reads from stdin and writes prompts to stdout
func NewCredentialPrompter() *CredentialPrompter {
	return &CredentialPrompter{
		keyring: NewKeyringManager(),
		in:      os.Stdin,
		out:     os.Stdout,
		fd:      int(os.Stdin.Fd()),
	}
}

// Secret describes one credential the prompter asks for
type Secret struct {
	Item     string
	Label    string
	Optional bool
}

// DefaultSecrets lists the credentials the service can use
func DefaultSecrets() []Secret {
	return []Secret{
		{Item: KeyringGitHubTokenItem, Label: "GitHub token"},
		{Item: KeyringOpenAIKeyItem, Label: "OpenAI API key", Optional: true},
		{Item: KeyringGeminiKeyItem, Label: "Gemini API key", Optional: true},
	}
}

// Run prompts for each secret and saves non-empty answers. Returns the items
// that were stored.
func (cp *CredentialPrompter) Run(secrets []Secret) ([]string, error) {
	if !cp.keyring.IsAvailable() {
		return nil, fmt.Errorf("OS keychain is not available; set the environment variables instead")
	}

	reader := bufio.NewReader(cp.in)
	var saved []string
	for _, s := range secrets {
		suffix := ""
		if s.Optional {
			suffix = " (Enter to skip)"
		}
		fmt.Fprintf(cp.out, "%s%s: ", s.Label, suffix)

		value, err := cp.readSecret(reader)
		if err != nil {
			return saved, err
		}
		if value == "" {
			if !s.Optional {
				return saved, fmt.Errorf("%s is required", s.Label)
			}
			continue
		}
		if err := cp.keyring.SaveAPIKey(s.Item, value); err != nil {
			return saved, err
		}
		fmt.Fprintf(cp.out, "✓ %s saved (%s)\n", s.Label, MaskAPIKey(value))
		saved = append(saved, s.Item)
	}
	return saved, nil
}

// readSecret reads without echo on a terminal, falling back to a plain line read
func (cp *CredentialPrompter) readSecret(reader *bufio.Reader) (string, error) {
	if cp.in == os.Stdin && term.IsTerminal(cp.fd) {
		bytes, err := term.ReadPassword(cp.fd)
		fmt.Fprintln(cp.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
