package main

import "github.com/jayo-projects/gokio/cmd/gokio/cmd"

func main() {
	cmd.Execute()
}
