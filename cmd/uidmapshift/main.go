package main

import (
	"github.com/sirupsen/logrus"

	"github.com/laomaiweng/uidmapshift/commands"
)

func main() {
	if err := commands.MainCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
