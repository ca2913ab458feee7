package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `   __              _  __      _                _
  / _| ___   ___  __| |/ _|_ __(_) ___ _ __   __| |
 | |_ / _ \ / _ \/ _' | |_| '__| |/ _ \ '_ \ / _' |
 |  _| (_) | (_) | (_| |  _| |  | |  __/ | | | (_| |
 |_|  \___/ \___/ \__,_|_| |_|  |_|\___|_| |_|\__,_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodfriend",
	Short: "Snap a dish, get the recipe. Track what you eat.",
	Long: LOGO + `foodfriend turns food photos into recipes and meal logs using the FoodFriend analysis API.

Run 'foodfriend ui' for the terminal app, or use the subcommands to script each step.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.foodfriend.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("format", "f", "txt", "Output format. Available: txt, json, yaml")
	rootCmd.PersistentFlags().StringP("output", "o", "", "txt output flags for lists. Recipes: i (id), t (title), d (description), c (category), m (time). Meals: i, t, k (calories), p (macros), c (date)")
	rootCmd.PersistentFlags().StringP("delimiter", "d", " ", "Delimiter character to use for txt output format")

	viper.BindPFlag("proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env in the working directory fills in variables not already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Log.Warnf("Could not load .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".foodfriend")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FOODFRIEND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("ai.api_key", "FOODFRIEND_AI_API_KEY", "OPENAI_API_KEY")

	// Set defaults for all keys
	viper.SetDefault("api.url", "")
	viper.SetDefault("api.retries", 0)
	viper.SetDefault("api.timeout", "60s")
	viper.SetDefault("api.saved_recipes_path", "/recipe")
	viper.SetDefault("camera.command", "")
	viper.SetDefault("camera.permission", "prompt")
	viper.SetDefault("auth.url", "")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.listen", "127.0.0.1:0")
	viper.SetDefault("session.path", "")
	viper.SetDefault("server.listen", ":8000")
	viper.SetDefault("server.dbpath", "")
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.access_key", "")
	viper.SetDefault("s3.secret_key", "")
	viper.SetDefault("s3.bucket", "foodfriend-photos")
	viper.SetDefault("s3.region", "")
	viper.SetDefault("s3.use_ssl", true)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.foodfriend.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %s", err)
			}
		} else {
			utils.Log.Warnf("Could not read config file: %v", err)
		}
	}
}
