package main

import "github.com/they4kman/sweepd/cmd"

func main() {
	cmd.Execute()
}
