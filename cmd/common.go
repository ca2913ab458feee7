package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/session"
)

func tokenCache() (*session.TokenCache, error) {
	return session.NewTokenCache(viper.GetString("session.path"))
}

func loadSession() (*session.Session, error) {
	cache, err := tokenCache()
	if err != nil {
		return nil, err
	}
	return cache.Load(viper.GetString("auth.jwt_secret"), time.Now())
}

// loadGate builds the session gate from the cached token. A missing or
// expired token yields a signed-out gate, not an error.
func loadGate() (*session.Gate, error) {
	s, err := loadSession()
	switch {
	case err == nil:
		return session.NewGate(s), nil
	case errors.Is(err, session.ErrSignedOut), errors.Is(err, session.ErrExpired):
		utils.Log.Debugf("No usable session: %v", err)
		return session.NewGate(nil), nil
	default:
		return nil, err
	}
}

// requireSession returns a signed-in gate or tells the user to log in.
func requireSession() (*session.Gate, error) {
	s, err := loadSession()
	switch {
	case errors.Is(err, session.ErrExpired):
		return nil, fmt.Errorf("your session expired, run 'foodfriend login'")
	case errors.Is(err, session.ErrSignedOut):
		return nil, fmt.Errorf("not signed in, run 'foodfriend login'")
	case err != nil:
		return nil, err
	}
	return session.NewGate(s), nil
}

func newAPIClient(gate *session.Gate) (*api.Client, error) {
	cfg := api.Config{
		BaseURL:          viper.GetString("api.url"),
		Retries:          viper.GetInt("api.retries"),
		Timeout:          viper.GetDuration("api.timeout"),
		Proxy:            viper.GetString("proxy"),
		SavedRecipesPath: viper.GetString("api.saved_recipes_path"),
	}
	if gate != nil {
		cfg.Token = gate.Token
	}
	return api.New(cfg)
}

func newCamera(interactive bool, ask func() bool) (*capture.Camera, error) {
	perm, err := capture.NewPermission(viper.GetString("camera.permission"), ask)
	if err != nil {
		return nil, err
	}
	return &capture.Camera{
		Command:     viper.GetString("camera.command"),
		Interactive: interactive,
		Permission:  perm,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}, nil
}

// pickerFromArgs picks the image source of a capture command: --source,
// the camera shorthands, or the image path argument.
func pickerFromArgs(cmd *cobra.Command, args []string) (capture.Picker, error) {
	source, err := captureSource(cmd)
	if err != nil {
		return nil, err
	}
	switch source {
	case capture.SourceCamera, capture.SourceSnapshot:
		return newCamera(source == capture.SourceCamera, capture.TerminalPrompt(os.Stdin, os.Stderr))
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("pass an image path or --camera")
	}
	return capture.File(args[0]), nil
}

func captureSource(cmd *cobra.Command) (capture.Source, error) {
	if raw, _ := cmd.Flags().GetString("source"); raw != "" {
		return capture.ParseSource(raw)
	}
	useCamera, _ := cmd.Flags().GetBool("camera")
	snapshot, _ := cmd.Flags().GetBool("snapshot")
	switch {
	case snapshot:
		return capture.SourceSnapshot, nil
	case useCamera:
		return capture.SourceCamera, nil
	}
	return capture.SourceGallery, nil
}

func addCaptureFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "Image source: camera, snapshot or gallery (an image path)")
	cmd.Flags().Bool("camera", false, "Capture with the camera (live preview), same as --source camera")
	cmd.Flags().Bool("snapshot", false, "Capture one camera frame without preview, same as --source snapshot")
}

// printOutput writes v in the --format the user asked for. txt uses the
// command's own printer.
func printOutput(cmd *cobra.Command, v interface{}, txt func(w io.Writer) error) error {
	format, _ := cmd.Flags().GetString("format")
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "txt", "":
		return txt(w)
	}
	return fmt.Errorf("unknown format %q (available: txt, json, yaml)", format)
}

func listFlags(cmd *cobra.Command, def string) (string, string) {
	outputFlags, _ := cmd.Flags().GetString("output")
	if outputFlags == "" {
		outputFlags = def
	}
	delimiter, _ := cmd.Flags().GetString("delimiter")
	return outputFlags, delimiter
}
