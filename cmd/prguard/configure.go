package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prguard/prguard/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive setup wizard (with OS keychain support)",
	Long: `Walks through PRGuard configuration step by step:

1. GitHub token (stored in the OS keychain when available)
2. OpenAI API key for optional LLM-powered semantic review
3. Risk threshold for failing commit statuses

Secrets go to the keychain, everything else to .prguard.yml.`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 PRGuard Configuration Wizard")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	km := config.NewKeyringManager()

	keychainAvailable := km.IsAvailable()
	if !keychainAvailable {
		fmt.Println("⚠️  OS keychain not available (headless system or Linux without libsecret)")
		fmt.Println("   Secrets will be stored in the config file instead.")
		fmt.Println()
	}

	// Step 1: GitHub token
	fmt.Println("Step 1/3: GitHub Token")
	current, _ := km.GetGitHubToken()
	if current != "" {
		fmt.Printf("  Current: %s\n", config.MaskSecret(current))
	}
	token, err := readSecret("  Token (enter to keep current): ")
	if err != nil {
		return err
	}
	if token != "" {
		if keychainAvailable {
			if err := km.SetGitHubToken(token); err != nil {
				return fmt.Errorf("storing token in keychain: %w", err)
			}
			fmt.Println("  ✓ Stored in OS keychain")
		} else {
			cfg.GitHub.Token = token
		}
	}
	fmt.Println()

	// Step 2: OpenAI API key
	fmt.Println("Step 2/3: OpenAI API Key (optional, for LLM semantic review)")
	apiKey, err := readSecret("  API key (enter to skip): ")
	if err != nil {
		return err
	}
	if apiKey != "" {
		if keychainAvailable {
			if err := km.SetAPIKey(apiKey); err != nil {
				return fmt.Errorf("storing API key in keychain: %w", err)
			}
			fmt.Println("  ✓ Stored in OS keychain")
		} else {
			cfg.LLM.APIKey = apiKey
		}
		cfg.LLM.Enabled = true
	}
	fmt.Println()

	// Step 3: Risk threshold
	fmt.Printf("Step 3/3: Risk threshold for failing status checks (current %d)\n", cfg.RiskThreshold)
	fmt.Print("  Threshold 0-100 (enter to keep): ")
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line != "" {
		var threshold int
		if _, err := fmt.Sscanf(line, "%d", &threshold); err != nil || threshold < 0 || threshold > 100 {
			return fmt.Errorf("invalid threshold %q; expected 0-100", line)
		}
		cfg.RiskThreshold = threshold
	}
	fmt.Println()

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigFile
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("✓ Configuration saved to %s\n", path)
	return nil
}

// readSecret reads without echo when stdin is a terminal, falling back
// to plain line input otherwise.
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
