package main

import "github.com/benthepsychologist/final-form/cmd"

func main() {
	cmd.Execute()
}
