// Package ui defines the interaction ports the console components use for
// blocking alerts, confirmations and outbound links.
package ui

// Notifier shows a message the user must acknowledge.
type Notifier interface {
	Alert(message string)
}

// Confirmer asks a yes/no question. Only an explicit yes returns true.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string) error
}
