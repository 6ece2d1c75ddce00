package main

import "github.com/kiesman99/panostitch/cmd"

func main() {
	cmd.Execute()
}
