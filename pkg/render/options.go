package render

// Options describe per-request data presenters can use without touching the
// form state.
type Options struct {
	// Action is where the form posts. Defaults to "/submissions".
	Action string
	// RetryAction is where the retry control posts after a failure. Empty
	// hides the control.
	RetryAction string
	// RefreshSeconds makes pending pages reload themselves. Zero disables it.
	RefreshSeconds int
	// Hidden inputs emitted with the form, e.g. a CSRF token.
	Hidden map[string]string
}
