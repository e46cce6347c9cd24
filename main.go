package main

import "github.com/guimove/powerfit/cmd"

func main() {
	cmd.Execute()
}
