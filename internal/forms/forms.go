// Package forms implements the save/load protocol every step form uses
// against the record store.
//
// A form is parametrized by a declarative Config: storage key, save
// strategy, initial shape and optional shape transforms. Loads are
// latest-wins and decode stored payloads defensively; saves guarantee at
// most one live record per (user, discriminator) key and report completion
// back to the progress gate through the step's OnComplete callback.
package forms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

// Values is the in-memory form document: field name to entered text.
type Values map[string]string

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Strategy selects how a save guarantees a single live record.
type Strategy string

const (
	// StrategyUpsert writes through the store's declared conflict key in a
	// single operation. Preferred wherever a suitable key exists.
	StrategyUpsert Strategy = "upsert"
	// StrategyFindThenBranch selects the existing record by key and then
	// updates it, or inserts when none exists. Required where the step
	// carries a discriminator the store cannot upsert on. Two overlapping
	// saves can both observe "no record" and race to insert; the loser
	// surfaces a save failure rather than creating a duplicate.
	StrategyFindThenBranch Strategy = "find_then_branch"
)

// Transform maps between the stored shape and the form shape.
type Transform func(Values) Values

// Config declares one step form's persistence behavior.
type Config struct {
	// Key is the answer namespace the form persists into.
	Key string
	// Strategy defaults to StrategyUpsert.
	Strategy Strategy
	// Initial is the empty/default document for a first visit.
	Initial Values
	// TransformIn converts the stored shape to the form shape.
	TransformIn Transform
	// TransformOut converts the form shape to the storage shape.
	TransformOut Transform
	// OnComplete reports a successful save to the progress gate. Bound at
	// mount time; nil for forms outside the step sequence.
	OnComplete func(ctx context.Context) error
}

// Form is one mounted step form for one user.
type Form struct {
	cfg           Config
	sess          *session.Session
	store         store.Store
	discriminator string
}

// New creates a form bound to the user's session.
func New(sess *session.Session, st store.Store, cfg Config) (*Form, error) {
	if cfg.Key == "" {
		return nil, models.ErrEmptyFormKey
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyUpsert
	}
	return &Form{cfg: cfg, sess: sess, store: st}, nil
}

// WithDiscriminator returns a copy of the form scoped to a secondary key
// (category, plan type, week number).
func (f *Form) WithDiscriminator(d string) *Form {
	scoped := *f
	scoped.discriminator = d
	return &scoped
}

// Load fetches the user's most recent answer for this form. A missing record
// means first visit and yields the initial document. A malformed payload is
// recovered as the initial document and logged, never surfaced as a blocking
// error. A store failure returns the initial document alongside the error so
// the caller can show an error state without blocking navigation.
func (f *Form) Load(ctx context.Context) (Values, error) {
	rec, err := f.store.LatestAnswer(f.sess.UserID, f.cfg.Key, f.discriminator)
	if err != nil {
		slog.Error("Form.Load: store read failed", "error", err, "key", f.cfg.Key, "userID", f.sess.UserID)
		return f.initial(), fmt.Errorf("failed to load %s: %w", f.cfg.Key, err)
	}
	if rec == nil {
		slog.Debug("Form.Load: first visit", "key", f.cfg.Key, "userID", f.sess.UserID, "discriminator", f.discriminator)
		return f.initial(), nil
	}

	values, decodeErr := decodePayload(rec.Payload)
	if decodeErr != nil {
		slog.Warn("Form.Load: malformed payload, falling back to defaults", "error", decodeErr, "key", f.cfg.Key, "userID", f.sess.UserID)
		return f.initial(), nil
	}
	if f.cfg.TransformIn != nil {
		values = f.cfg.TransformIn(values)
	}
	slog.Debug("Form.Load: loaded", "key", f.cfg.Key, "userID", f.sess.UserID, "fields", len(values))
	return values, nil
}

// Save persists the document and, on success, reports completion through the
// OnComplete callback. On failure no completion is reported and the caller's
// in-memory values are untouched, so the user can retry without re-entering
// data.
func (f *Form) Save(ctx context.Context, values Values) error {
	out := values
	if f.cfg.TransformOut != nil {
		out = f.cfg.TransformOut(values.Clone())
	}
	payload, err := json.Marshal(out)
	if err != nil {
		slog.Error("Form.Save: encode failed", "error", err, "key", f.cfg.Key)
		return fmt.Errorf("failed to encode %s: %w", f.cfg.Key, err)
	}

	switch f.cfg.Strategy {
	case StrategyFindThenBranch:
		err = f.saveFindThenBranch(string(payload))
	default:
		err = f.saveUpsert(string(payload))
	}
	if err != nil {
		return err
	}

	if f.cfg.OnComplete != nil {
		if err := f.cfg.OnComplete(ctx); err != nil {
			slog.Error("Form.Save: completion side effect failed", "error", err, "key", f.cfg.Key)
			return fmt.Errorf("saved %s but failed to record completion: %w", f.cfg.Key, err)
		}
	}
	slog.Info("Form.Save: saved", "key", f.cfg.Key, "userID", f.sess.UserID, "discriminator", f.discriminator)
	return nil
}

func (f *Form) saveUpsert(payload string) error {
	now := time.Now()
	rec := models.AnswerRecord{
		ID:            uuid.NewString(),
		UserID:        f.sess.UserID,
		FormKey:       f.cfg.Key,
		Discriminator: f.discriminator,
		Payload:       payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.UpsertAnswer(rec); err != nil {
		return fmt.Errorf("failed to save %s: %w", f.cfg.Key, err)
	}
	return nil
}

func (f *Form) saveFindThenBranch(payload string) error {
	existing, err := f.store.LatestAnswer(f.sess.UserID, f.cfg.Key, f.discriminator)
	if err != nil {
		return fmt.Errorf("failed to check existing %s: %w", f.cfg.Key, err)
	}
	now := time.Now()
	if existing != nil {
		existing.Payload = payload
		existing.UpdatedAt = now
		if err := f.store.UpdateAnswer(*existing); err != nil {
			return fmt.Errorf("failed to update %s: %w", f.cfg.Key, err)
		}
		return nil
	}
	rec := models.AnswerRecord{
		ID:            uuid.NewString(),
		UserID:        f.sess.UserID,
		FormKey:       f.cfg.Key,
		Discriminator: f.discriminator,
		Payload:       payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.InsertAnswer(rec); err != nil {
		return fmt.Errorf("failed to insert %s: %w", f.cfg.Key, err)
	}
	return nil
}

func (f *Form) initial() Values {
	if f.cfg.Initial == nil {
		return Values{}
	}
	return f.cfg.Initial.Clone()
}

// decodePayload parses a stored document. Some legacy records carry the JSON
// body base64-encoded; both encodings are accepted.
func decodePayload(payload string) (Values, error) {
	if payload == "" {
		return Values{}, nil
	}
	var values Values
	if err := json.Unmarshal([]byte(payload), &values); err == nil {
		return values, nil
	}
	decoded, b64Err := base64.StdEncoding.DecodeString(payload)
	if b64Err != nil {
		return nil, fmt.Errorf("payload is neither JSON nor base64: %w", b64Err)
	}
	if err := json.Unmarshal(decoded, &values); err != nil {
		return nil, fmt.Errorf("base64 payload does not decode to JSON: %w", err)
	}
	return values, nil
}
