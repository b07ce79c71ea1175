package main

import (
	"fmt"

	"github.com/itohio/gripmate/pkg/device"
)

type PortsCommand struct{}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := device.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.Description != "" && p.Description != p.Name {
			fmt.Printf("%s\t%s\n", p.Name, p.Description)
		} else {
			fmt.Println(p.Name)
		}
	}
	return nil
}
