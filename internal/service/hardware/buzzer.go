package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Buzzer is an active buzzer on a digital output. On and Off are idempotent;
// the pin is written on every call.
type Buzzer struct {
	mu  sync.Mutex
	pin gpio.PinOut
	on  bool
}

// NewBuzzer drives pin low and returns the buzzer.
func NewBuzzer(pin gpio.PinOut) (*Buzzer, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure buzzer pin %s: %w", pin, err)
	}
	return &Buzzer{pin: pin}, nil
}

// OpenBuzzer resolves the named pin and wraps it.
func OpenBuzzer(name string) (*Buzzer, error) {
	pin, err := LookupPin(name)
	if err != nil {
		return nil, err
	}
	return NewBuzzer(pin)
}

func (b *Buzzer) On() error {
	return b.set(gpio.High)
}

func (b *Buzzer) Off() error {
	return b.set(gpio.Low)
}

// IsOn reports the last level written successfully.
func (b *Buzzer) IsOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *Buzzer) set(level gpio.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pin.Out(level); err != nil {
		return fmt.Errorf("buzzer %s: %w", b.pin, err)
	}
	b.on = level == gpio.High
	return nil
}

// Close silences the buzzer.
func (b *Buzzer) Close() error {
	return b.Off()
}
