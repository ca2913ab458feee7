package main

import "github.com/foodfriend/foodfriend/cmd"

func main() {
	cmd.Execute()
}
