package main

import "github.com/audiolibrelab/duocap/cmd"

func main() {
	cmd.Execute()
}
