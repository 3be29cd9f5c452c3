package main

import "github.com/rawbytedev/kvview/cmd/kvview/commands"

func main() {
	commands.Execute()
}
