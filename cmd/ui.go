package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foodfriend/foodfriend/internal/tui"
	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/session"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the FoodFriend terminal app",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The alt screen owns the terminal, so logs go to a file.
		dir, err := utils.ConfigDir()
		if err != nil {
			return err
		}
		logFile, err := utils.LogToFile(filepath.Join(dir, "foodfriend.log"))
		if err != nil {
			return err
		}
		defer logFile.Close()

		gate, err := loadGate()
		if err != nil {
			return err
		}
		tokens, err := tokenCache()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		// No terminal prompt inside the app: the create screen asks instead.
		camera, err := newCamera(true, nil)
		if err != nil {
			return err
		}
		camera.Stdin, camera.Stdout, camera.Stderr = nil, nil, nil

		provider := &session.Provider{
			AuthURL: viper.GetString("auth.url"),
			Secret:  viper.GetString("auth.jwt_secret"),
			Listen:  viper.GetString("auth.listen"),
			Open: func(url string) error {
				utils.Log.Infof("Sign in at: %s", url)
				return startBrowser(url)
			},
		}

		app, err := tui.NewApp(tui.Options{
			API:    client,
			Gate:   gate,
			Tokens: tokens,
			SignIn: func(ctx context.Context) (*session.Session, error) {
				return provider.SignIn(ctx)
			},
			Camera: camera,
		})
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
