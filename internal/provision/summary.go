package provision

import (
	"time"

	"github.com/syntrixbase/schemasync/internal/schema"
)

// Status is the per-entity result of a provisioning attempt.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
	StatusFailed        Status = "failed"
)

// Outcome is the reported result for one remote entity. It is never persisted.
type Outcome struct {
	Status Status      `json:"status"`
	Kind   schema.Kind `json:"kind,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// outcomeOf maps a create-call result onto an Outcome.
func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Status: StatusCreated}
	case schema.IsConflict(err):
		return Outcome{Status: StatusAlreadyExists, Kind: schema.KindConflict}
	default:
		return Outcome{Status: StatusFailed, Kind: schema.KindOf(err), Reason: schema.Message(err)}
	}
}

// Succeeded reports whether the entity exists after the attempt.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCreated || o.Status == StatusAlreadyExists
}

// EntityResult is the outcome for one attribute or index.
type EntityResult struct {
	Key     string  `json:"key"`
	Type    string  `json:"type"`
	Outcome Outcome `json:"outcome"`
}

// CollectionResult collects the outcomes for one collection.
type CollectionResult struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Outcome    Outcome        `json:"outcome"`
	Attributes []EntityResult `json:"attributes"`
	Indexes    []EntityResult `json:"indexes"`
	// NotReady lists attributes that did not become available in time.
	NotReady []string `json:"not_ready,omitempty"`
}

// BucketCheck is the result of the storage bucket precondition.
type BucketCheck struct {
	ID     string      `json:"id"`
	Found  bool        `json:"found"`
	Kind   schema.Kind `json:"kind,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// Summary is the final report of a run.
type Summary struct {
	Catalog     string             `json:"catalog"`
	Fingerprint string             `json:"fingerprint"`
	DatabaseID  string             `json:"database_id"`
	Database    Outcome            `json:"database"`
	Bucket      BucketCheck        `json:"bucket"`
	Collections []CollectionResult `json:"collections"`
	State       string             `json:"state"`
	Fatal       string             `json:"fatal,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// CollectionsAttempted returns the number of collections the run reached.
func (s *Summary) CollectionsAttempted() int {
	return len(s.Collections)
}

// AttributesAttempted returns the number of attribute create calls issued.
func (s *Summary) AttributesAttempted() int {
	n := 0
	for i := range s.Collections {
		n += len(s.Collections[i].Attributes)
	}
	return n
}

// IndexesAttempted returns the number of index create calls issued.
func (s *Summary) IndexesAttempted() int {
	n := 0
	for i := range s.Collections {
		n += len(s.Collections[i].Indexes)
	}
	return n
}

// Counts tallies outcomes by status.
type Counts struct {
	Created       int `json:"created"`
	AlreadyExists int `json:"already_exists"`
	Failed        int `json:"failed"`
}

func (c *Counts) add(o Outcome) {
	switch o.Status {
	case StatusCreated:
		c.Created++
	case StatusAlreadyExists:
		c.AlreadyExists++
	case StatusFailed:
		c.Failed++
	}
}

// CollectionCounts tallies collection outcomes.
func (s *Summary) CollectionCounts() Counts {
	var c Counts
	for i := range s.Collections {
		c.add(s.Collections[i].Outcome)
	}
	return c
}

// AttributeCounts tallies attribute outcomes across all collections.
func (s *Summary) AttributeCounts() Counts {
	var c Counts
	for i := range s.Collections {
		for _, a := range s.Collections[i].Attributes {
			c.add(a.Outcome)
		}
	}
	return c
}

// IndexCounts tallies index outcomes across all collections.
func (s *Summary) IndexCounts() Counts {
	var c Counts
	for i := range s.Collections {
		for _, idx := range s.Collections[i].Indexes {
			c.add(idx.Outcome)
		}
	}
	return c
}

// Failures returns "collection.key: reason" for every failed attribute and index.
func (s *Summary) Failures() []string {
	var out []string
	for i := range s.Collections {
		coll := &s.Collections[i]
		for _, a := range coll.Attributes {
			if a.Outcome.Status == StatusFailed {
				out = append(out, coll.ID+"."+a.Key+": "+a.Outcome.Reason)
			}
		}
		for _, idx := range coll.Indexes {
			if idx.Outcome.Status == StatusFailed {
				out = append(out, coll.ID+"."+idx.Key+": "+idx.Outcome.Reason)
			}
		}
	}
	return out
}
