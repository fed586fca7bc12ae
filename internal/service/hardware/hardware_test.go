package hardware

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type brokenPin struct {
	gpiotest.Pin
}

func (b *brokenPin) Out(gpio.Level) error { return errors.New("pin busy") }

func TestBuzzer_LevelFollowsCalls(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO21", L: gpio.High}

	b, err := NewBuzzer(pin)
	if err != nil {
		t.Fatalf("NewBuzzer failed: %v", err)
	}
	if pin.L != gpio.Low {
		t.Fatal("Buzzer should start silent")
	}

	steps := []struct {
		on   bool
		want gpio.Level
	}{
		{true, gpio.High},
		{true, gpio.High},
		{false, gpio.Low},
		{false, gpio.Low},
		{true, gpio.High},
	}
	for i, s := range steps {
		if s.on {
			err = b.On()
		} else {
			err = b.Off()
		}
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if pin.L != s.want || b.IsOn() != s.on {
			t.Errorf("Step %d: pin=%v isOn=%v, expected %v", i, pin.L, b.IsOn(), s.want)
		}
	}

	if err := b.Close(); err != nil || pin.L != gpio.Low {
		t.Errorf("Close should silence buzzer, pin=%v err=%v", pin.L, err)
	}
}

func TestBuzzer_PinErrorIsReturned(t *testing.T) {
	if _, err := NewBuzzer(&brokenPin{gpiotest.Pin{N: "GPIO21"}}); err == nil {
		t.Fatal("Expected error configuring a broken pin")
	}
}

func TestMotionSensor_ReadsPin(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO16"}

	sensor, err := NewMotionSensor(pin)
	if err != nil {
		t.Fatalf("NewMotionSensor failed: %v", err)
	}
	if pin.P != gpio.PullDown {
		t.Errorf("Expected pull-down, got %v", pin.P)
	}

	pin.L = gpio.Low
	if sensor.MotionDetected() {
		t.Error("Low pin should read as no motion")
	}
	pin.L = gpio.High
	if !sensor.MotionDetected() {
		t.Error("High pin should read as motion")
	}
}
