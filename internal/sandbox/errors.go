package sandbox

import (
	"errors"
	"fmt"
)

// ErrExportMissing reports that a module lacks a required export.
var ErrExportMissing = errors.New("export missing")

// Fault is any failure inside the sandbox: compile, instantiate, memory
// growth, missing export or trap. Op names the failing step.
type Fault struct {
	Op  string
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("sandbox %s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func fault(op string, err error) error {
	return &Fault{Op: op, Err: err}
}
