// Package display is the status text boundary. The core hands it one
// formatted multi-line string per cycle; rendering hardware is outside the
// core, so the default implementation just logs.
package display

import "log"

// Display receives formatted status text.
type Display interface {
	// WriteMultiline shows the given multi-line text.
	WriteMultiline(text string) error

	// PowerSave blanks the display to cut current draw until the next write.
	PowerSave() error
}

// LogDisplay writes status text to the process log.
type LogDisplay struct{}

// WriteMultiline logs the text.
func (LogDisplay) WriteMultiline(text string) error {
	log.Printf("display:\n%s", text)
	return nil
}

// PowerSave is a no-op for the log backend.
func (LogDisplay) PowerSave() error { return nil }

// FakeDisplay records writes for test assertions.
type FakeDisplay struct {
	// Writes contains every text passed to WriteMultiline.
	Writes []string

	// PowerSaves counts PowerSave calls.
	PowerSaves int

	// WriteError, if set, is returned by WriteMultiline.
	WriteError error
}

// WriteMultiline records the text.
func (f *FakeDisplay) WriteMultiline(text string) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, text)
	return nil
}

// PowerSave counts the call.
func (f *FakeDisplay) PowerSave() error {
	f.PowerSaves++
	return nil
}
