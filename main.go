package main

import "github.com/VoxDroid/cargoscript/cmd"

func main() {
	cmd.Execute()
}
