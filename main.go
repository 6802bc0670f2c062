package main

import "github.com/goabroad-labs/studytables/cmd"

func main() {
	cmd.Execute()
}
