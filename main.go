package main

import "git.skobk.in/skobkin/group-formation-bot/cmd"

func main() {
	cmd.Execute()
}
