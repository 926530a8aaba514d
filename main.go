package main

import "github.com/atikulmunna/esoloom/internal/cmd"

func main() {
	cmd.Execute()
}
