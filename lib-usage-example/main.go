package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
)

func main() {
	// Usage: go run *.go -url "http://127.0.0.1:8000" -token "your_session_token" -image dish.jpg

	urlFlag := flag.String("url", "", "FoodFriend API base URL")
	tokenFlag := flag.String("token", "", "Session token")
	imageFlag := flag.String("image", "", "Photo of a dish")

	flag.Parse()

	if *urlFlag == "" || *imageFlag == "" {
		fmt.Println("Both -url and -image are required.")
		return
	}

	client, err := api.New(api.Config{
		BaseURL: *urlFlag,
		Token:   func() string { return *tokenFlag },
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Photos go through the same normalisation the app uses before upload.
	photo, err := capture.Normalize(*imageFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	recipe, err := client.AnalyzeForRecipe(context.Background(), photo)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	food.PrintRecipe(os.Stdout, recipe)
}
