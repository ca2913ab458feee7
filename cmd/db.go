package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the development backend database",
}

func dbPathFlag(cmd *cobra.Command) (string, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	dbPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database file not found: %s", dbPath)
	}
	return dbPath, nil
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}

		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints counts of users, recipes and meals in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "USERS\tRECIPES\tMEALS\t")
		fmt.Fprintf(w, "%d\t%d\t%d\t\n", stats.Users, stats.Recipes, stats.Meals)
		w.Flush()

		if len(stats.ByCategory) == 0 {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout())
		w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "CATEGORY\tRECIPES\t")
		for _, c := range stats.ByCategory {
			fmt.Fprintf(w, "%s\t%d\t\n", c.Category, c.Recipes)
		}
		return w.Flush()
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Lists the users known to the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return printOutput(cmd, users, func(out io.Writer) error {
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\t")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t\n", u.ID, u.Email, strings.TrimSpace(u.FirstName+" "+u.LastName))
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(usersCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default ~/.config/foodfriend/foodfriend.sqlite)")
}
