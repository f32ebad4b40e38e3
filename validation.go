package netstack

// Validator accumulates frame-validation errors so that a parser can run
// several independent checks before deciding whether to drop a packet,
// without allocating on the success path.
//
// The zero value is ready to use.
type Validator struct {
	accum []error
}

// ResetErr clears any accumulated errors so the Validator can be reused for
// the next frame.
func (v *Validator) ResetErr() { v.accum = v.accum[:0] }

// HasError reports whether any error has been recorded.
func (v *Validator) HasError() bool { return len(v.accum) != 0 }

// AddError records err. AddError panics if err is nil, since a nil error
// means the caller had nothing to report and shouldn't be calling AddError.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("netstack: AddError called with nil error")
	}
	v.accum = append(v.accum, err)
}

// Err returns the first recorded error, or nil if none was recorded.
func (v *Validator) Err() error {
	if len(v.accum) == 0 {
		return nil
	}
	return v.accum[0]
}

// ErrPop returns the first recorded error and clears the Validator so it is
// ready for the next frame, saving callers a separate ResetErr call.
func (v *Validator) ErrPop() error {
	err := v.Err()
	v.ResetErr()
	return err
}
