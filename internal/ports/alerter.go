package ports

// Alerter surfaces a single-line, human-readable message to the operator:
// fatal batch rejections, per-record failures, total connection failure.
type Alerter interface {
	Alert(message string)
}

// AlerterFunc adapts a plain function to the Alerter interface.
type AlerterFunc func(string)

func (f AlerterFunc) Alert(message string) { f(message) }
