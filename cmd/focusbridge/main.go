package main

import "github.com/bryanchriswhite/focusbridge/cmd/focusbridge/commands"

func main() {
	commands.Execute()
}
