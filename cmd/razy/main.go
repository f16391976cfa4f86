package main

import "github.com/razyhost/razy/cmd/razy/cmd"

func main() {
	cmd.Execute()
}
