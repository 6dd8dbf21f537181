package automation

import (
	"context"
	"fmt"
	"image"
)

// Scripted is a Driver for tests: screenshots come from a per-URL script
// and every call is recorded.
type Scripted struct {
	// Screens maps a chat URL to the screenshot Screenshot returns while
	// that chat is open. URLs not present use Fallback.
	Screens  map[string]image.Image
	Fallback image.Image

	// Fail makes the named call return an error ("open", "screenshot",
	// "image", "text", "close").
	Fail map[string]error

	// Calls is the ordered log of calls, e.g. "open https://wa.me/9725...",
	// "text היי דנה!...", "image /tmp/x.jpg", "close".
	Calls []string

	current string
}

func (s *Scripted) OpenChat(_ context.Context, url string) error {
	s.Calls = append(s.Calls, "open "+url)
	if err := s.Fail["open"]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *Scripted) Screenshot(context.Context) (image.Image, error) {
	s.Calls = append(s.Calls, "screenshot")
	if err := s.Fail["screenshot"]; err != nil {
		return nil, err
	}
	if img, ok := s.Screens[s.current]; ok {
		return img, nil
	}
	if s.Fallback == nil {
		return nil, fmt.Errorf("scripted driver: no screen for %s", s.current)
	}
	return s.Fallback, nil
}

func (s *Scripted) PasteImage(_ context.Context, path string) error {
	s.Calls = append(s.Calls, "image "+path)
	return s.Fail["image"]
}

func (s *Scripted) SendText(_ context.Context, text string) error {
	s.Calls = append(s.Calls, "text "+text)
	return s.Fail["text"]
}

func (s *Scripted) CloseChat(context.Context) error {
	s.Calls = append(s.Calls, "close")
	return s.Fail["close"]
}
