package main

import "github.com/researchaccelerator-hub/manga-notifier/cmd"

func main() {
	cmd.Execute()
}
