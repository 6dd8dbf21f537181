// Package automation isolates the desktop/browser automation behind a small
// capability interface so the send logic can be exercised without a live
// WhatsApp session.
package automation

import (
	"context"
	"image"
)

// Driver is the capability surface the send pipeline needs. Every error a
// Driver returns is a row-local automation failure: the current contact is
// skipped and the run continues.
type Driver interface {
	// OpenChat brings the chat behind the wa.me link into focus.
	OpenChat(ctx context.Context, url string) error

	// Screenshot captures the current chat view for failure detection.
	Screenshot(ctx context.Context) (image.Image, error)

	// PasteImage attaches the image file to the open chat.
	PasteImage(ctx context.Context, path string) error

	// SendText pastes text into the message box and sends it.
	SendText(ctx context.Context, text string) error

	// CloseChat dismisses the current chat (used after a page-not-found).
	CloseChat(ctx context.Context) error
}
