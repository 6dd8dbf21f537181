// Package send runs the per-contact state machine: open the chat, detect
// known failure screens, then deliver the image and both messages.
package send

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/automation"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/contacts"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/payload"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/vision"
)

// State of the per-row machine. Done and Skipped are terminal.
type State int

const (
	StateStart State = iota
	StateDetecting
	StateSending
	StateDone
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDetecting:
		return "detecting"
	case StateSending:
		return "sending"
	case StateDone:
		return "done"
	default:
		return "skipped"
	}
}

// Result is the terminal outcome for one contact.
type Result struct {
	State  State
	Sent   bool
	Reason string
}

// Engine executes the state machine against an automation driver. One
// contact is fully processed before the next begins.
type Engine struct {
	driver     automation.Driver
	classifier *vision.Classifier
	msgs       *payload.Payload
	pauses     config.Pauses
	detection  config.Detection
	log        *zap.Logger
}

func NewEngine(driver automation.Driver, classifier *vision.Classifier, msgs *payload.Payload, cfg *config.Config, log *zap.Logger) *Engine {
	return &Engine{
		driver:     driver,
		classifier: classifier,
		msgs:       msgs,
		pauses:     cfg.Pauses,
		detection:  cfg.Detection,
		log:        log,
	}
}

// Process runs one contact through the machine. Automation failures are
// row-local: they produce a Skipped result, never an error. The returned
// error is reserved for context cancellation.
func (e *Engine) Process(ctx context.Context, row contacts.Row) (Result, error) {
	e.log.Debug("processing row",
		zap.Int("row", row.Number),
		zap.String("url", row.ChatURL))

	// Start -> Detecting
	if err := e.driver.OpenChat(ctx, row.ChatURL); err != nil {
		return e.skip(ctx, fmt.Sprintf("Failed to open chat: %v", err))
	}
	if err := sleep(ctx, e.pauses.Render.Std()); err != nil {
		return Result{State: StateSkipped}, err
	}

	state, err := e.detect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Result{State: StateSkipped}, ctx.Err()
		}
		return e.skip(ctx, fmt.Sprintf("Screen detection failed: %v", err))
	}

	switch state {
	case vision.PhoneNotFound:
		// Detecting -> Skipped
		return Result{State: StateSkipped, Reason: "Phone number not found."}, nil
	case vision.PageNotFound:
		// Detecting -> Skipped; the dead tab is closed so it does not
		// shadow the next contact's chat.
		if err := e.driver.CloseChat(ctx); err != nil {
			e.log.Warn("failed to close page-not-found tab", zap.Error(err))
		}
		return Result{State: StateSkipped, Reason: "Page not found."}, nil
	}

	// Detecting -> Sending. Image first, then the two texts, in that fixed
	// order; the first automation error abandons the rest of the row.
	if err := e.driver.PasteImage(ctx, e.msgs.ImagePath()); err != nil {
		return e.skip(ctx, fmt.Sprintf("Failed to attach image: %v", err))
	}
	if err := sleep(ctx, e.pauses.AfterImage.Std()); err != nil {
		return Result{State: StateSkipped}, err
	}

	if err := e.driver.SendText(ctx, e.msgs.First(row.FirstName)); err != nil {
		return e.skip(ctx, fmt.Sprintf("Failed to send first message: %v", err))
	}
	if err := sleep(ctx, e.pauses.AfterPaste.Std()); err != nil {
		return Result{State: StateSkipped}, err
	}

	if err := e.driver.SendText(ctx, e.msgs.Second()); err != nil {
		return e.skip(ctx, fmt.Sprintf("Failed to send second message: %v", err))
	}
	if err := sleep(ctx, e.pauses.BeforeClose.Std()); err != nil {
		return Result{State: StateSkipped}, err
	}

	if err := e.driver.CloseChat(ctx); err != nil {
		e.log.Warn("failed to close chat tab after send", zap.Error(err))
	}

	// Sending -> Done
	return Result{State: StateDone, Sent: true}, nil
}

// detect classifies the current screen, retrying while it reads Normal so a
// slow-to-render failure page is still caught. The first non-Normal reading
// wins.
func (e *Engine) detect(ctx context.Context) (vision.State, error) {
	tries := e.detection.Retries
	if tries < 1 {
		tries = 1
	}

	for i := 0; i < tries; i++ {
		if i > 0 {
			if err := sleep(ctx, e.detection.RetryDelay.Std()); err != nil {
				return vision.Normal, err
			}
		}
		img, err := e.driver.Screenshot(ctx)
		if err != nil {
			return vision.Normal, err
		}
		if state := e.classifier.Classify(img); state != vision.Normal {
			return state, nil
		}
	}
	return vision.Normal, nil
}

// skip closes whatever chat is open and returns a Skipped result. The close
// is best-effort; the reason already names the real failure.
func (e *Engine) skip(ctx context.Context, reason string) (Result, error) {
	if err := e.driver.CloseChat(ctx); err != nil {
		e.log.Debug("close after failure", zap.Error(err))
	}
	return Result{State: StateSkipped, Reason: reason}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
