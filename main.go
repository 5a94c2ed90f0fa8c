package main

import "github.com/frahmantamala/contacthub/cmd"

func main() {
	cmd.Execute()
}
