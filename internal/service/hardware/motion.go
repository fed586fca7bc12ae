package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// MotionSensor reads a PIR sensor whose output is high while motion is seen.
type MotionSensor struct {
	pin gpio.PinIn
}

// NewMotionSensor configures pin as a pulled-down input.
func NewMotionSensor(pin gpio.PinIn) (*MotionSensor, error) {
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure motion pin %s: %w", pin, err)
	}
	return &MotionSensor{pin: pin}, nil
}

// OpenMotionSensor resolves the named pin and wraps it.
func OpenMotionSensor(name string) (*MotionSensor, error) {
	pin, err := LookupPin(name)
	if err != nil {
		return nil, err
	}
	return NewMotionSensor(pin)
}

// MotionDetected samples the pin.
func (m *MotionSensor) MotionDetected() bool {
	return m.pin.Read() == gpio.High
}
