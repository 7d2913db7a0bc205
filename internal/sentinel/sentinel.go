package sentinel

var _ error = Error("")

// Error is a string-backed error that can be declared as a constant.
// Values compare by content, so errors.Is matches them through %w chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
