package main

import "sbisec-trading-bot/cmd/sbisec/commands"

func main() {
	commands.Execute()
}
