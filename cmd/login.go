package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to FoodFriend",
	Long:  "Opens the sign-in page in your browser and waits for it to hand the session back. Use --token to store a session token you already have.",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		secret := viper.GetString("auth.jwt_secret")

		var (
			s   *session.Session
			err error
		)
		if token != "" {
			s, err = session.ParseToken(token, secret, time.Now())
		} else {
			p := &session.Provider{
				AuthURL: viper.GetString("auth.url"),
				Secret:  secret,
				Listen:  viper.GetString("auth.listen"),
				Out:     cmd.ErrOrStderr(),
			}
			if !noBrowser {
				p.Open = openBrowser
			}
			s, err = p.SignIn(cmd.Context())
		}
		if err != nil {
			return err
		}

		cache, err := tokenCache()
		if err != nil {
			return err
		}
		if err := cache.Save(s.Token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(s))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := tokenCache()
		if err != nil {
			return err
		}
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate, err := requireSession()
		if err != nil {
			return err
		}
		s, err := gate.Session()
		if err != nil {
			return err
		}
		return printOutput(cmd, s, func(w io.Writer) error {
			fmt.Fprintf(w, "%s (%s)\n", displayName(s), s.UserID)
			if !s.ExpiresAt.IsZero() {
				fmt.Fprintf(w, "Session expires %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		})
	},
}

func displayName(s *session.Session) string {
	switch {
	case s.Name != "" && s.Email != "":
		return s.Name + " <" + s.Email + ">"
	case s.Email != "":
		return s.Email
	case s.Name != "":
		return s.Name
	}
	return s.UserID
}

// openBrowser prints url and tries to show it in the default browser.
func openBrowser(url string) error {
	fmt.Fprintf(os.Stderr, "Sign in at: %s\n", url)
	if err := startBrowser(url); err != nil {
		utils.Log.Debugf("could not open a browser: %v", err)
	}
	return nil
}

func startBrowser(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait()
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringP("token", "t", "", "Session token (JWT) to store instead of signing in through the browser")
	loginCmd.Flags().Bool("no-browser", false, "Only print the sign-in URL")
}
