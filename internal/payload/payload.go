// Package payload loads the campaign's message templates and personalizes
// them per contact.
package payload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
)

// RLM is the right-to-left mark prefixed to outgoing Hebrew text so
// WhatsApp renders it in the correct direction.
const RLM = "\u200F"

// Payload holds the templates and image for a run. Loaded once; immutable
// afterwards.
type Payload struct {
	firstTemplate    string
	secondMessage    string
	imagePath        string
	greeting         string
	greetingFallback string
}

// Load reads both templates and resolves the image path. Any missing file
// is a configuration failure that halts the run before any row is touched.
func Load(cfg config.Messages) (*Payload, error) {
	first, err := os.ReadFile(cfg.First)
	if err != nil {
		return nil, fmt.Errorf("load first message template: %w", err)
	}
	second, err := os.ReadFile(cfg.Second)
	if err != nil {
		return nil, fmt.Errorf("load second message template: %w", err)
	}
	image, err := filepath.Abs(cfg.Image)
	if err != nil {
		return nil, fmt.Errorf("resolve image path: %w", err)
	}
	if _, err := os.Stat(image); err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	return &Payload{
		firstTemplate:    string(first),
		secondMessage:    RLM + string(second),
		imagePath:        image,
		greeting:         cfg.Greeting,
		greetingFallback: cfg.GreetingFallback,
	}, nil
}

// First returns the personalized first message: an RLM, a greeting carrying
// the first token of firstName (or the fallback greeting when the name is
// empty), then the template stripped of any leading RLM it carries itself.
func (p *Payload) First(firstName string) string {
	greeting := p.greetingFallback
	if name := firstToken(firstName); name != "" {
		greeting = fmt.Sprintf(p.greeting, name)
	}
	return RLM + greeting + "\n" + strings.TrimLeft(p.firstTemplate, RLM)
}

// Second returns the second message, identical for every contact.
func (p *Payload) Second() string {
	return p.secondMessage
}

// ImagePath returns the absolute path of the image sent to every contact.
func (p *Payload) ImagePath() string {
	return p.imagePath
}

func firstToken(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
