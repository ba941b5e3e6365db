package main

import "github.com/findy-network/findy-credex/cmd"

func main() {
	cmd.Execute()
}
