package main

import (
	"log"
	"os"

	"github.com/jmg8766/Firewall-Simulator/cmd"
)

func main() {
	err := cmd.App.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
