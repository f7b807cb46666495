package main

import (
	"github.com/eci4ever/bizadmin/cmd"
)

var (
	version = "dev"
	commit  string
	date    string
)

func main() {
	cmd.ExecuteCLI(version, commit, date)
}
