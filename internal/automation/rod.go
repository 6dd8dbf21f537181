package automation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"

	"github.com/atotto/clipboard"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
)

// WhatsApp Web selectors. These track the current web client markup and are
// the first thing to check when sends start failing.
const (
	selMessageBox = `div[contenteditable="true"][data-tab="10"]`
	selAttach     = `button[data-tab] span[data-icon="plus"]`
	selFileInput  = `input[type="file"][accept*="image"]`
)

// RodDriver drives WhatsApp Web through a Chrome instance. One chat page is
// open at a time.
type RodDriver struct {
	browser *rod.Browser
	page    *rod.Page
}

// NewRodDriver launches Chrome (or attaches to cfg.ControlURL when set) and
// connects. The WhatsApp Web session is expected to already be logged in via
// the browser profile.
func NewRodDriver(cfg config.Browser) (*RodDriver, error) {
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	return &RodDriver{browser: browser}, nil
}

// OpenChat opens the wa.me link in a fresh tab, replacing any chat tab left
// over from the previous contact.
func (d *RodDriver) OpenChat(ctx context.Context, url string) error {
	if d.page != nil {
		_ = d.page.Close()
		d.page = nil
	}

	page, err := d.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("open chat %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		_ = page.Close()
		return fmt.Errorf("load chat %s: %w", url, err)
	}

	d.page = page
	return nil
}

// Screenshot captures the full chat page as a decoded image.
func (d *RodDriver) Screenshot(ctx context.Context) (image.Image, error) {
	if d.page == nil {
		return nil, fmt.Errorf("screenshot: no chat open")
	}

	data, err := d.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// PasteImage attaches the image through the chat's file input.
func (d *RodDriver) PasteImage(ctx context.Context, path string) error {
	if d.page == nil {
		return fmt.Errorf("paste image: no chat open")
	}
	page := d.page.Context(ctx)

	attach, err := page.Element(selAttach)
	if err != nil {
		return fmt.Errorf("find attach button: %w", err)
	}
	if err := attach.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click attach button: %w", err)
	}

	fileInput, err := page.Element(selFileInput)
	if err != nil {
		return fmt.Errorf("find file input: %w", err)
	}
	if err := fileInput.SetFiles([]string{path}); err != nil {
		return fmt.Errorf("attach image %s: %w", path, err)
	}
	return nil
}

// SendText puts text on the system clipboard, pastes it into the message
// box and presses Enter. Clipboard paste keeps Hebrew and other non-ASCII
// text intact where synthesized keystrokes would not.
func (d *RodDriver) SendText(ctx context.Context, text string) error {
	if d.page == nil {
		return fmt.Errorf("send text: no chat open")
	}
	page := d.page.Context(ctx)

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy text to clipboard: %w", err)
	}

	box, err := page.Element(selMessageBox)
	if err != nil {
		return fmt.Errorf("find message box: %w", err)
	}
	if err := box.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus message box: %w", err)
	}

	if err := page.Keyboard.Press(input.ControlLeft); err != nil {
		return fmt.Errorf("press ctrl: %w", err)
	}
	if err := page.Keyboard.Type(input.KeyV); err != nil {
		return fmt.Errorf("paste text: %w", err)
	}
	if err := page.Keyboard.Release(input.ControlLeft); err != nil {
		return fmt.Errorf("release ctrl: %w", err)
	}

	if err := page.Keyboard.Type(input.Enter); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// CloseChat closes the current chat tab.
func (d *RodDriver) CloseChat(ctx context.Context) error {
	if d.page == nil {
		return nil
	}
	err := d.page.Close()
	d.page = nil
	if err != nil {
		return fmt.Errorf("close chat tab: %w", err)
	}
	return nil
}

// Shutdown closes any open chat and disconnects from the browser.
func (d *RodDriver) Shutdown() error {
	if d.page != nil {
		_ = d.page.Close()
		d.page = nil
	}
	return d.browser.Close()
}
