package main

import "github.com/frahmantamala/assignment-tracker/cmd"

func main() {
	cmd.Execute()
}
