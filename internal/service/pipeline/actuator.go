package pipeline

import "errors"

// NopActuator ignores alert changes. Used when no output device is configured.
type NopActuator struct{}

func (NopActuator) On() error  { return nil }
func (NopActuator) Off() error { return nil }

// MultiActuator drives every wrapped actuator and joins their errors.
type MultiActuator []Actuator

func (m MultiActuator) On() error {
	var errs []error
	for _, a := range m {
		if err := a.On(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiActuator) Off() error {
	var errs []error
	for _, a := range m {
		if err := a.Off(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
