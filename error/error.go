package error

import (
	"fmt"
	"strings"
)

// SpecError is one defect of a submitted grammar. Compilation gathers
// all defects it can find before giving up, so errors usually surface as
// a SpecErrors list.
type SpecError struct {
	Cause      error
	SourceName string
	Rule       string
	Detail     string
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)
	if e.Rule != "" {
		fmt.Fprintf(&b, ": rule: %v", e.Rule)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %v", e.Detail)
	}
	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}
	return b.String()
}
