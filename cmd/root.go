package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/logger"
)

const (
	app = "job-screener"
)

type Config struct {
	Adzuna  *AdzunaConfig  `mapstructure:"adzuna" validate:"required"`
	Gemini  *GeminiConfig  `mapstructure:"gemini" validate:"required"`
	News    *NewsConfig    `mapstructure:"news" validate:"required"`
	Filters *FiltersConfig `mapstructure:"filters"`
	Results *ResultsConfig `mapstructure:"results"`
}

type AdzunaConfig struct {
	AppID             string  `mapstructure:"app-id"`
	APIKey            string  `mapstructure:"api-key"`
	APIKeyFile        string  `mapstructure:"api-key-file"`
	Country           string  `mapstructure:"country" validate:"required,len=2,lowercase"`
	Pages             int     `mapstructure:"pages" validate:"min=1,max=100"`
	PerPage           int     `mapstructure:"per-page" validate:"min=1,max=50"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second" validate:"gt=0"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model" validate:"required"`
	Temperature  float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries   int     `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int     `mapstructure:"max-log-length" validate:"gte=0"`
}

type NewsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	LookbackDays int    `mapstructure:"lookback-days" validate:"gte=0"`
	Limit        int    `mapstructure:"limit" validate:"min=1,max=100"`
}

type FiltersConfig struct {
	Categories       []string `mapstructure:"categories"`
	Locations        []string `mapstructure:"locations"`
	Companies        []string `mapstructure:"companies"`
	Keywords         []string `mapstructure:"keywords"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	// Disabled lists filter names to skip, e.g. "keyword".
	Disabled []string `mapstructure:"disabled"`
}

type ResultsConfig struct {
	// Database is an optional sqlite file keeping results between runs.
	Database string `mapstructure:"database"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-screener fetches job postings and runs AI-assisted candidate screening against them",
	}

	envBindings = map[string]string{
		"adzuna.app-id":       "ADZUNA_APP_ID",
		"adzuna.api-key":      "ADZUNA_API_KEY",
		"adzuna.api-key-file": "ADZUNA_API_KEY_FILE",
		"gemini.api-key":      "GEMINI_API_KEY",
		"gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"news.api-key":        "NEWS_API_KEY",
		"news.api-key-file":   "NEWS_API_KEY_FILE",
		"results.database":    "JOB_SCREENER_DATABASE",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env is fine.
	_ = godotenv.Load()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("adzuna.country", "us")
	v.SetDefault("adzuna.pages", 1)
	v.SetDefault("adzuna.per-page", 50)
	v.SetDefault("adzuna.requests-per-second", 1.0)

	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.max-retries", 1)
	v.SetDefault("gemini.max-log-length", 200)

	v.SetDefault("news.enabled", true)
	v.SetDefault("news.lookback-days", 7)
	v.SetDefault("news.limit", 2)

	v.SetDefault("filters.categories", []string{})
	v.SetDefault("filters.locations", []string{})
	v.SetDefault("filters.companies", []string{})
	v.SetDefault("filters.keywords", []string{})
	v.SetDefault("filters.exclude-companies", []string{})
	v.SetDefault("filters.disabled", []string{})

	v.SetDefault("results.database", "")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Everything can come from defaults and the environment, so only an
	// explicitly requested or broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Results == nil {
		config.Results = &ResultsConfig{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, formatValidation(err)
	}

	return config, nil
}

func formatValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func setupLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}
