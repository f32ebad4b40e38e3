package internet

import "log/slog"

// WithLogger sets the logger used for warnings (ARP conflicts, driver
// errors) and, when level-enabled, frame traces. A nil logger silences both.
func (e *Engine) WithLogger(log *slog.Logger) *Engine {
	e.log = log
	return e
}
