package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/appstate"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
)

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Track meals and check your health score",
}

var mealTrackCmd = &cobra.Command{
	Use:   "track [image]",
	Short: "Log a meal from a food photo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		picker, err := pickerFromArgs(cmd, args)
		if err != nil {
			return err
		}
		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}

		wf := capture.NewWorkflow(appstate.New(), client, client)
		meal, err := wf.TrackMeal(cmd.Context(), picker, gate.UserID())
		if errors.Is(err, capture.ErrCanceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Capture canceled.")
			return nil
		}
		if err != nil {
			return err
		}
		return printOutput(cmd, meal, func(w io.Writer) error {
			food.PrintMeal(w, meal)
			return nil
		})
	},
}

var mealDayCmd = &cobra.Command{
	Use:   "day",
	Short: "List the meals logged on one day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		if date == "" {
			date = time.Now().UTC().Format(food.DateLayout)
		} else if _, err := time.Parse(food.DateLayout, date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
		}

		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		meals, err := client.MealsForDay(cmd.Context(), gate.UserID(), date, limit)
		if err != nil {
			return err
		}
		outputFlags, delimiter := listFlags(cmd, "tkp")
		return printOutput(cmd, meals, func(w io.Writer) error {
			if len(meals) == 0 {
				fmt.Fprintf(w, "No meals logged on %s.\n", date)
				return nil
			}
			if err := food.PrintMeals(w, meals, outputFlags, delimiter); err != nil {
				return err
			}
			total := 0
			for _, m := range meals {
				total += m.Calories
			}
			fmt.Fprintf(w, "Total: %d kcal\n", total)
			return nil
		})
	},
}

var mealScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show your health score for today's meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		score, err := client.HealthScore(cmd.Context(), gate.UserID())
		if err != nil {
			return err
		}
		return printOutput(cmd, score, func(w io.Writer) error {
			food.PrintHealthScore(w, score)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealTrackCmd)
	mealCmd.AddCommand(mealDayCmd)
	mealCmd.AddCommand(mealScoreCmd)

	addCaptureFlags(mealTrackCmd)
	mealDayCmd.Flags().String("date", "", "Day to list as YYYY-MM-DD (default today, UTC)")
	mealDayCmd.Flags().Int("limit", api.DayMealsLimit, "Maximum number of meals")
}
