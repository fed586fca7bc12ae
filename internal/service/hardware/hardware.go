// Package hardware drives the alert buzzer and reads the PIR motion sensor over GPIO.
package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host GPIO drivers once per process.
func Init() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

// LookupPin resolves a pin name such as "GPIO21".
func LookupPin(name string) (gpio.PinIO, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("initialize GPIO host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("GPIO pin %q not found", name)
	}
	return pin, nil
}
