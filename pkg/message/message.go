// Copyright 2024-2026 Aiku AI

// Package message holds the dual-encoding chat message type and its
// builder. Every message carries a plain text body for clients without
// HTML support and an HTML body for the rest; the two always convey the
// same information.
package message

// Data is a fully formatted message ready to send. Both fields are always
// populated; plain-only messages duplicate the text into HTML.
type Data struct {
	// Plain is the text shown by clients that do not render HTML.
	Plain string
	// HTML is the rich text shown by clients that do.
	HTML string
}

// FromText wraps bare text into a Data with identical encodings.
func FromText(text string) Data {
	return Data{Plain: text, HTML: text}
}
