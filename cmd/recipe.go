package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/appstate"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Analyse dishes and browse recipes",
}

var recipeAnalyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Turn a food photo into a recipe",
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
		recipe, err := wf.AnalyzeRecipe(cmd.Context(), picker)
		if errors.Is(err, capture.ErrCanceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Capture canceled.")
			return nil
		}
		if err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			if err := client.SaveRecipe(cmd.Context(), recipe, gate.UserID()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s to your recipes.\n", recipe.Name)
		}
		return printOutput(cmd, recipe.Record(), func(w io.Writer) error {
			food.PrintRecipe(w, recipe)
			return nil
		})
	},
}

var recipeGenerateCmd = &cobra.Command{
	Use:   "generate <wish>",
	Short: "Write a recipe for a free-text wish",
	Long:  `Asks the backend for a recipe matching a wish such as "a mild vegan curry for four".`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wish := strings.TrimSpace(strings.Join(args, " "))
		if wish == "" {
			return fmt.Errorf("tell me what you would like to cook")
		}
		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		recipe, err := client.GenerateRecipe(cmd.Context(), wish)
		if err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			if err := client.SaveRecipe(cmd.Context(), recipe, gate.UserID()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s to your recipes.\n", recipe.Name)
		}
		return printOutput(cmd, recipe.Record(), func(w io.Writer) error {
			food.PrintRecipe(w, recipe)
			return nil
		})
	},
}

var recipeSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a recipe from a YAML or JSON file to your recipes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		// JSON is valid YAML, so one decoder covers both.
		var rec food.RecipeRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if rec.Title == "" {
			return fmt.Errorf("%s: recipe has no title", args[0])
		}

		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		r := rec.Recipe(rec.ID)
		if err := client.SaveRecipe(cmd.Context(), r, gate.UserID()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to your recipes.\n", r.Name)
		return nil
	},
}

var recipeGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one saved recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad recipe id %q", args[0])
		}
		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		r, err := client.Recipe(cmd.Context(), id)
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("recipe %d not found", id)
		}
		if err != nil {
			return err
		}
		return printOutput(cmd, r.Record(), func(w io.Writer) error {
			food.PrintRecipe(w, r)
			return nil
		})
	},
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes shared by everyone",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")
		if category != "" {
			c, err := food.ParseCategory(category)
			if err != nil {
				return err
			}
			category = string(c)
		}

		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		recipes, err := client.GlobalRecipes(cmd.Context(), api.ListOptions{Category: category, Limit: limit})
		if err != nil {
			return err
		}
		return printRecipeList(cmd, recipes)
	},
}

var recipeSavedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate, err := requireSession()
		if err != nil {
			return err
		}
		client, err := newAPIClient(gate)
		if err != nil {
			return err
		}
		recipes, err := client.SavedRecipes(cmd.Context(), gate.UserID())
		if err != nil {
			return err
		}
		return printRecipeList(cmd, recipes)
	},
}

func printRecipeList(cmd *cobra.Command, recipes []food.Recipe) error {
	records := make([]food.RecipeRecord, 0, len(recipes))
	for _, r := range recipes {
		records = append(records, r.Record())
	}
	outputFlags, delimiter := listFlags(cmd, "itc")
	return printOutput(cmd, records, func(w io.Writer) error {
		return food.PrintRecipes(w, recipes, outputFlags, delimiter)
	})
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeAnalyzeCmd)
	recipeCmd.AddCommand(recipeGenerateCmd)
	recipeCmd.AddCommand(recipeSaveCmd)
	recipeCmd.AddCommand(recipeGetCmd)
	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeSavedCmd)

	addCaptureFlags(recipeAnalyzeCmd)
	recipeAnalyzeCmd.Flags().Bool("save", false, "Save the analysed recipe to your recipes")
	recipeGenerateCmd.Flags().Bool("save", false, "Save the generated recipe to your recipes")

	recipeListCmd.Flags().StringP("category", "c", "", "Only list this category ("+food.CategoryNames()+", other)")
	recipeListCmd.Flags().Int("limit", api.CategoryPageLimit, "Maximum number of recipes")
}
