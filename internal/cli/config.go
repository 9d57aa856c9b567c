package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configFile := configPath
	dataDir := filepath.Join(home, ".local", "share", "bursary")

	// Create directories
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("Config file already exists at %s\n", configFile)
		fmt.Println("Use 'bursary config show' to view current configuration")
		return nil
	}

	data, err := defaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Import bursaries with 'bursary import FILE' or 'bursary scrape'")
	fmt.Println("  2. Save a profile with 'bursary profile set USER --industry ... --course ...'")
	fmt.Println("  3. Run 'bursary match USER'")
	fmt.Println()
	fmt.Println("For local embeddings, ensure Ollama is running with the all-minilm model:")
	fmt.Println("  ollama pull all-minilm")
	fmt.Println("  ollama serve")
	fmt.Println("Or set embedding.provider = \"gemini\" and export GEMINI_API_KEY.")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'bursary config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const configHeader = `# Bursary matcher configuration
#
# Secrets and deployment settings may also come from the environment:
#   DATABASE_URL, BURSARY_DATABASE_DRIVER, REDIS_URL, GEMINI_API_KEY,
#   OLLAMA_HOST, BURSARY_LOG_JSON

`

// defaultConfig renders the built-in defaults as TOML
func defaultConfig() ([]byte, error) {
	body, err := toml.Marshal(config.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to render default config: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}
