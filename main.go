package main

import (
	"github.com/syncpoint-network/syncpoint/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
