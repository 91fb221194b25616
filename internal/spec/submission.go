package spec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Submission is one canonical form submission as handed to the pipeline.
// Responses maps field keys to raw answer values (string or number);
// absent fields are simply absent from the map.
type Submission struct {
	FormID           string         `json:"form_id"`
	FormSubmissionID string         `json:"form_submission_id"`
	SubjectID        string         `json:"subject_id"`
	Timestamp        string         `json:"timestamp"`
	Responses        map[string]any `json:"responses"`
}

// DecodeSubmission reads a single canonical submission from r.
func DecodeSubmission(r io.Reader) (*Submission, error) {
	var sub Submission
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sub); err != nil {
		return nil, fmt.Errorf("decoding submission: %w", err)
	}
	if sub.FormSubmissionID == "" {
		return nil, fmt.Errorf("submission is missing form_submission_id")
	}
	if sub.FormID == "" {
		return nil, fmt.Errorf("submission %s is missing form_id", sub.FormSubmissionID)
	}
	if sub.Responses == nil {
		sub.Responses = map[string]any{}
	}
	return &sub, nil
}

// LoadSubmission reads a canonical submission from a JSON file.
func LoadSubmission(path string) (*Submission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sub, err := DecodeSubmission(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sub, nil
}
