// Package hw binds the controller to a Linux single-board computer through
// periph: an ADS1115 converter for the EMG and force inputs and a GPIO PWM
// output for the servo.
package hw

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/host/v3"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph host drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("periph host init: %w", err)
			return
		}
		for _, f := range state.Failed {
			log.Printf("hw: driver %s failed: %v", f.D, f.Err)
		}
	})
	return initErr
}
