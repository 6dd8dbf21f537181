// Package runner iterates the spreadsheet from the resume position, sending
// to each contact and persisting the outcome and position after every row.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/contacts"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/ledger"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/resume"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/send"
)

// FaultyURLSentinel is the placeholder link the list provider emits when a
// contact has no real number.
const FaultyURLSentinel = "https://wa.me/972"

// Runner owns one campaign run. Strictly sequential: a row is fully
// processed and persisted before the next is read.
type Runner struct {
	cfg     *config.Config
	source  *contacts.Source
	tracker *resume.Tracker
	ledger  *ledger.Ledger
	engine  *send.Engine
	log     *zap.Logger
	rng     *rand.Rand
}

func New(cfg *config.Config, source *contacts.Source, tracker *resume.Tracker, led *ledger.Ledger, engine *send.Engine, log *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		source:  source,
		tracker: tracker,
		ledger:  led,
		engine:  engine,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run processes rows from st.StartRow until the end of the sheet, the batch
// cap, or cancellation. Spreadsheet and resume-state writes happen after
// every row regardless of outcome; a write failure halts the run without
// advancing past the failing row.
func (r *Runner) Run(ctx context.Context, st resume.State) error {
	r.log.Info("starting run",
		zap.String("spreadsheet", st.Spreadsheet),
		zap.Int("start_row", st.StartRow),
		zap.Int("batch_size", st.BatchSize))

	processed := 0
	sent := 0
	for rowNum := st.StartRow; rowNum <= r.source.LastRow(); rowNum++ {
		if processed >= st.BatchSize {
			r.log.Info("batch cap reached", zap.Int("processed", processed))
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := r.source.Read(rowNum)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowNum, err)
		}

		// Rows annotated by a previous run cost nothing and don't count
		// against the batch.
		if row.Sent == r.cfg.Statuses.Sent {
			st.StartRow = rowNum + 1
			if err := r.tracker.Save(st); err != nil {
				return err
			}
			continue
		}

		outcome, err := r.processRow(ctx, row)
		if err != nil {
			return err
		}
		if outcome.sent {
			sent++
		}

		if err := r.source.Mark(rowNum, outcome.status, outcome.comment, outcome.sent); err != nil {
			return err
		}
		st.StartRow = rowNum + 1
		if err := r.tracker.Save(st); err != nil {
			return err
		}
		processed++

		if outcome.sent {
			if sent%10 == 1 {
				r.log.Info("sent",
					zap.String("contact", row.PersonID()),
					zap.String("url", row.ChatURL))
			}
			if err := r.pauseBetweenContacts(ctx); err != nil {
				return err
			}
		} else {
			r.log.Info("skipped",
				zap.Int("row", rowNum),
				zap.String("reason", outcome.comment))
		}
	}

	r.log.Info("run finished", zap.Int("processed", processed), zap.Int("sent", sent))
	return nil
}

type outcome struct {
	status  string
	comment string
	sent    bool
}

// processRow applies the pre-send checks and, when they pass, runs the send
// state machine. Only cancellation and persistence failures return errors;
// everything row-local lands in the outcome.
func (r *Runner) processRow(ctx context.Context, row contacts.Row) (outcome, error) {
	notSent := r.cfg.Statuses.NotSent

	// Duplicate guard: unnamed rows bypass it, since their identity is
	// unknowable.
	personID := row.PersonID()
	if personID != "" {
		seen, err := r.ledger.Seen(personID)
		if err != nil {
			return outcome{}, err
		}
		if seen {
			return outcome{status: notSent, comment: "Duplicate contact"}, nil
		}
	}

	if row.ChatURL == FaultyURLSentinel {
		return outcome{status: notSent, comment: "URL is not a real number (https://wa.me/972)"}, nil
	}
	if !strings.HasPrefix(row.ChatURL, "https://") {
		return outcome{status: notSent, comment: "Phone number/URL is not correct"}, nil
	}

	res, err := r.engine.Process(ctx, row)
	if err != nil {
		return outcome{}, err
	}
	if !res.Sent {
		return outcome{status: notSent, comment: res.Reason}, nil
	}

	if personID != "" {
		if err := r.ledger.Record(personID, row.ChatURL); err != nil {
			return outcome{}, err
		}
	}
	return outcome{status: r.cfg.Statuses.Sent, sent: true}, nil
}

// pauseBetweenContacts sleeps a random duration inside the configured window
// so consecutive sends don't fire at machine speed.
func (r *Runner) pauseBetweenContacts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	min, max := r.cfg.Pauses.MinBetween.Std(), r.cfg.Pauses.MaxBetween.Std()
	if max <= min {
		max = min
	}
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(r.rng.Int63n(int64(span)))
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
