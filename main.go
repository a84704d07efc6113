package main

import "github.com/mouse-blink/archdna/cmd"

func main() {
	cmd.Execute()
}
