package main

import "github.com/KaramelBytes/rentlens-cli/cmd"

func main() {
	cmd.Execute()
}
