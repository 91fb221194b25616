// Package event assembles measurement-event envelopes from processed
// instrument sections. Events are the hand-off to downstream publishing;
// nothing here persists or emits them.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benthepsychologist/final-form/internal/interpretation"
	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/scoring"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// Producer identity stamped into event telemetry.
const (
	ProducerName    = "final-form"
	ProducerVersion = "1.0.0"
)

// Observation kind constants.
const (
	KindItem  = "item"
	KindScale = "scale"
)

// Observation is one normalized measurement inside an event: either a
// recoded item value or a computed scale score.
type Observation struct {
	ObservationID  string                           `json:"observation_id"`
	Kind           string                           `json:"kind"`
	Code           string                           `json:"code"`
	Value          *float64                         `json:"value"`
	Missing        bool                             `json:"missing,omitempty"`
	Method         spec.Method                      `json:"method,omitempty"`
	Prorated       bool                             `json:"prorated,omitempty"`
	Error          string                           `json:"error,omitempty"`
	Interpretation *interpretation.InterpretedScore `json:"interpretation,omitempty"`
}

// Source identifies where the measurements came from.
type Source struct {
	System         string `json:"system"`
	FormID         string `json:"form_id"`
	BindingID      string `json:"binding_id"`
	BindingVersion string `json:"binding_version"`
}

// Telemetry records how and when the event was built.
type Telemetry struct {
	Producer        string `json:"producer"`
	ProducerVersion string `json:"producer_version"`
	GeneratedAt     string `json:"generated_at"`
}

// MeasurementEvent is the publishable envelope for one instrument section
// of one submission.
type MeasurementEvent struct {
	EventID           string        `json:"event_id"`
	EventType         string        `json:"event_type"`
	Domain            string        `json:"domain"`
	SubjectID         string        `json:"subject_id"`
	FormSubmissionID  string        `json:"form_submission_id"`
	InstrumentID      string        `json:"instrument_id"`
	InstrumentVersion string        `json:"instrument_version"`
	EffectiveTime     string        `json:"effective_time"`
	Observations      []Observation `json:"observations"`
	Source            Source        `json:"source"`
	Telemetry         Telemetry     `json:"telemetry"`
	Warnings          []string      `json:"warnings,omitempty"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithDeterministicIDs derives event and observation IDs from their
// content (UUIDv5) instead of random UUIDs. Used in tests and replays.
func WithDeterministicIDs(b bool) Option { return func(bl *Builder) { bl.deterministic = b } }

// WithClock overrides the telemetry timestamp source.
func WithClock(now func() time.Time) Option { return func(bl *Builder) { bl.now = now } }

// Builder assembles MeasurementEvents.
type Builder struct {
	deterministic bool
	namespace     uuid.UUID
	now           func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		namespace: uuid.NameSpaceOID,
		now:       time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build packages one processed instrument section into an event. Item
// observations come first in instrument order, then scale observations in
// scale order; failed scales keep their observation with a nil value and
// the scoring error attached.
func (b *Builder) Build(
	section *recoding.RecodedSection,
	scores *scoring.Result,
	interpreted *interpretation.Result,
	binding *spec.FormBindingSpec,
	sub *spec.Submission,
	warnings []string,
) *MeasurementEvent {
	ev := &MeasurementEvent{
		EventID:           b.id("event", sub.FormSubmissionID, section.InstrumentID),
		EventType:         "measurement",
		Domain:            "questionnaire",
		SubjectID:         sub.SubjectID,
		FormSubmissionID:  sub.FormSubmissionID,
		InstrumentID:      section.InstrumentID,
		InstrumentVersion: section.InstrumentVersion,
		EffectiveTime:     sub.Timestamp,
		Source: Source{
			System:         ProducerName,
			FormID:         binding.FormID,
			BindingID:      binding.BindingID,
			BindingVersion: binding.Version,
		},
		Telemetry: Telemetry{
			Producer:        ProducerName,
			ProducerVersion: ProducerVersion,
			GeneratedAt:     b.now().UTC().Format(time.RFC3339),
		},
		Warnings: warnings,
	}

	for _, item := range section.Items {
		ev.Observations = append(ev.Observations, Observation{
			ObservationID: b.id("item", sub.FormSubmissionID, section.InstrumentID, item.ItemID),
			Kind:          KindItem,
			Code:          item.ItemID,
			Value:         item.Value,
			Missing:       item.Missing,
		})
	}

	for _, scale := range scores.Scales {
		obs := Observation{
			ObservationID: b.id("scale", sub.FormSubmissionID, section.InstrumentID, scale.ScaleID),
			Kind:          KindScale,
			Code:          scale.ScaleID,
			Value:         scale.Value,
			Method:        scale.Method,
			Prorated:      scale.Prorated,
			Error:         scale.Err,
		}
		if interpreted != nil {
			obs.Interpretation = interpreted.Score(scale.ScaleID)
		}
		ev.Observations = append(ev.Observations, obs)
	}

	return ev
}

func (b *Builder) id(parts ...string) string {
	if !b.deterministic {
		return uuid.NewString()
	}
	name := parts[0]
	for _, p := range parts[1:] {
		name = fmt.Sprintf("%s/%s", name, p)
	}
	return uuid.NewSHA1(b.namespace, []byte(name)).String()
}
