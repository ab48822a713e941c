package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/easy-applier/internal/linkedin"
	"github.com/spigell/easy-applier/internal/pacing"
)

const (
	app = "easy-applier"

	defaultOutputDir = "output"
)

type Config struct {
	Profile     map[string]any        `mapstructure:"profile"`
	Search      linkedin.SearchParams `mapstructure:"search"`
	Blacklist   BlacklistConfig       `mapstructure:"blacklist"`
	Output      OutputConfig          `mapstructure:"output"`
	ExcludeFile string                `mapstructure:"exclude-file"`
	Apply       ApplyConfig           `mapstructure:"apply"`
	Rules       RulesConfig           `mapstructure:"rules"`
	Pacing      pacing.Config         `mapstructure:"pacing"`
	Browser     BrowserConfig         `mapstructure:"browser"`
	AI          *AIConfig             `mapstructure:"ai"`
}

type BlacklistConfig struct {
	Companies []string `mapstructure:"companies"`
	Titles    []string `mapstructure:"titles"`
	Posters   []string `mapstructure:"posters"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory"`
}

type ApplyConfig struct {
	MaxSteps    int  `mapstructure:"max-steps"`
	EvaluateFit bool `mapstructure:"evaluate-fit"`
}

// RulesConfig reorders and disables entries of the built-in answer rule table.
type RulesConfig struct {
	Order    []string `mapstructure:"order"`
	Disabled []string `mapstructure:"disabled"`
}

type BrowserConfig struct {
	ProfileDir string `mapstructure:"profile-dir"`
	Headless   bool   `mapstructure:"headless"`
	ExecPath   string `mapstructure:"exec-path"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	FitModel     string `mapstructure:"fit-model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "easy-applier searches job postings and walks their easy apply forms for you",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// a missing .env is fine, the variables may come from the environment
	_ = godotenv.Load()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("browser.profile-dir", "EASY_APPLIER_BROWSER_PROFILE"); err != nil {
		log.Fatalf("binding EASY_APPLIER_BROWSER_PROFILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is easy-applier.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// version does not need a config
	if runCmd.CalledAs() == "" && inspectCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Pacing: pacing.DefaultConfig(),
		Output: OutputConfig{Directory: defaultOutputDir},
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
