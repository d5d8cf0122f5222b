package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a config file interactively",
	Long: `Create a shareline config file interactively.

You will be prompted for the server port, database backend, storage path,
and the secrets used for identity assertions and session cookies. Leaving
a secret blank generates a random one.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().String("output", "config.yaml", "path of the config file to write")

	rootCmd.AddCommand(setupCmd)
}

// setupFile mirrors the config file layout consumed by config.Load.
type setupFile struct {
	Server struct {
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url,omitempty"`
	} `yaml:"server"`
	Database struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"database"`
	Storage struct {
		Path   string `yaml:"path"`
		Detect string `yaml:"detect"`
	} `yaml:"storage"`
	Auth struct {
		ProviderSecret string `yaml:"provider_secret"`
		SessionSecret  string `yaml:"session_secret"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runSetup(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("File '%s' already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg setupFile

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "8080",
		Validate: func(input string) error {
			p, err := strconv.Atoi(input)
			if err != nil || p < 1 || p > 65535 {
				return errors.New("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	baseURLPrompt := promptui.Prompt{
		Label:   "Public base URL (blank to derive from requests)",
		Default: "",
	}
	cfg.Server.BaseURL, err = baseURLPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	dbSelect := promptui.Select{
		Label: "Database backend",
		Items: []string{"sqlite", "postgres"},
	}
	_, cfg.Database.Type, err = dbSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	dsnDefault := "shareline.db"
	if cfg.Database.Type == "postgres" {
		dsnDefault = "postgres://localhost:5432/shareline"
	}
	dsnPrompt := promptui.Prompt{
		Label:   "Database DSN",
		Default: dsnDefault,
	}
	cfg.Database.DSN, err = dsnPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	storagePrompt := promptui.Prompt{
		Label:   "Storage path",
		Default: "./uploads",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("storage path is required")
			}
			return nil
		},
	}
	cfg.Storage.Path, err = storagePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	detectSelect := promptui.Select{
		Label: "MIME type detection",
		Items: []string{"sniff", "client"},
	}
	_, cfg.Storage.Detect, err = detectSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	providerPrompt := promptui.Prompt{
		Label: "Provider secret (blank to generate)",
		Mask:  '*',
	}
	cfg.Auth.ProviderSecret, err = providerPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	if cfg.Auth.ProviderSecret == "" {
		cfg.Auth.ProviderSecret, err = randomSecret()
		if err != nil {
			return err
		}
		fmt.Println("Generated provider secret.")
	}

	sessionPrompt := promptui.Prompt{
		Label: "Session secret (blank to generate)",
		Mask:  '*',
	}
	cfg.Auth.SessionSecret, err = sessionPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	if cfg.Auth.SessionSecret == "" {
		cfg.Auth.SessionSecret, err = randomSecret()
		if err != nil {
			return err
		}
		fmt.Println("Generated session secret.")
	}

	logSelect := promptui.Select{
		Label: "Log level",
		Items: []string{"debug", "info", "warn", "error"},
	}
	_, cfg.Log.Level, err = logSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Config written to '%s'.\n", output)
	fmt.Println("Start the server with 'shareline serve'.")
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
