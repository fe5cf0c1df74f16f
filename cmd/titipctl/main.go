package main

import "github.com/titipin/titip-backend/cmd/titipctl/commands"

func main() {
	commands.Execute()
}
