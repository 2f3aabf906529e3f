// Package editing implements the edit session of a single record: an
// immutable baseline, a working copy the caller mutates, field-level
// dirtiness and required-field validation before commit.
package editing

import (
	"context"
	"fmt"

	"github.com/emberline/stockroom/internal/records"
)

// Authorizer decides whether the current principal may write.
type Authorizer interface {
	RequireWrite() error
}

// Persister stores committed records.
type Persister interface {
	// Create stores a new record and returns its assigned identity.
	Create(ctx context.Context, record *records.Record) (int64, error)
	// Update overwrites an existing record.
	Update(ctx context.Context, record *records.Record) error
}

// PersisterFuncs adapts two functions to Persister.
type PersisterFuncs struct {
	CreateFunc func(ctx context.Context, record *records.Record) (int64, error)
	UpdateFunc func(ctx context.Context, record *records.Record) error
}

// Create calls CreateFunc.
func (p PersisterFuncs) Create(ctx context.Context, record *records.Record) (int64, error) {
	return p.CreateFunc(ctx, record)
}

// Update calls UpdateFunc.
func (p PersisterFuncs) Update(ctx context.Context, record *records.Record) error {
	return p.UpdateFunc(ctx, record)
}

// Session owns one record's baseline and working copy. It is not safe for
// concurrent use.
type Session struct {
	policy   Policy
	baseline *records.Record
	working  *records.Record
}

// Load starts a session. A nil record starts a new, unsaved record.
func Load(policy Policy, record *records.Record) (*Session, error) {
	if policy.Shape == nil {
		return nil, fmt.Errorf("%w: policy has no shape", ErrShapeMismatch)
	}
	var baseline *records.Record
	if record == nil {
		baseline = policy.Shape.Blank()
	} else {
		if record.Shape() != policy.Shape {
			return nil, fmt.Errorf("%w: %s record for %s policy", ErrShapeMismatch, record.Shape().Name(), policy.Shape.Name())
		}
		baseline = record.Clone()
	}
	return &Session{policy: policy, baseline: baseline, working: baseline.Clone()}, nil
}

// IsNew reports whether committing will create a record.
func (s *Session) IsNew() bool {
	return records.IsUnassigned(s.baseline.Identity())
}

// Baseline returns a copy of the last loaded or committed record.
func (s *Session) Baseline() *records.Record { return s.baseline.Clone() }

// Working returns a copy of the working record.
func (s *Session) Working() *records.Record { return s.working.Clone() }

// Get reads a working field.
func (s *Session) Get(field records.Field) (records.Value, error) {
	return s.working.Get(field)
}

// SetField writes a working field. Undeclared fields return
// *records.UnknownFieldError.
func (s *Session) SetField(field records.Field, value records.Value) error {
	return s.working.Set(field, value)
}

// equivalent treats a null baseline and a zero working value as unchanged,
// since input controls cannot show "no value" and fall back to 0 or "".
func equivalent(baseline, working records.Value) bool {
	if baseline.Equal(working) {
		return true
	}
	return baseline.IsNull() && working.IsZero()
}

// DirtyFields lists the working fields that diverge from the baseline.
func (s *Session) DirtyFields() []records.Field {
	var dirty []records.Field
	for _, spec := range s.policy.Shape.Fields() {
		if !equivalent(s.baseline.Lookup(spec.Name), s.working.Lookup(spec.Name)) {
			dirty = append(dirty, spec.Name)
		}
	}
	return dirty
}

// IsDirty reports whether any field diverges from the baseline.
func (s *Session) IsDirty() bool {
	for _, spec := range s.policy.Shape.Fields() {
		if !equivalent(s.baseline.Lookup(spec.Name), s.working.Lookup(spec.Name)) {
			return true
		}
	}
	return false
}

// Validate checks every required field in declared order.
func (s *Session) Validate() []FieldError {
	var failures []FieldError
	for _, requirement := range s.policy.Required {
		if !requirement.Valid(s.working.Lookup(requirement.Field)) {
			failures = append(failures, FieldError{Field: requirement.Field, Reason: requirement.Reason})
		}
	}
	return failures
}

// Commit validates, authorizes and persists the working copy. New records
// adopt the identity the persister assigns. On success the baseline becomes
// the working copy and the session is clean.
func (s *Session) Commit(ctx context.Context, authorizer Authorizer, persister Persister) (int64, error) {
	if failures := s.Validate(); len(failures) > 0 {
		return 0, &ValidationError{Fields: failures}
	}
	if err := authorizer.RequireWrite(); err != nil {
		return 0, err
	}

	if s.IsNew() {
		id, err := persister.Create(ctx, s.working.Clone())
		if err != nil {
			return 0, err
		}
		if err := s.working.Set(s.policy.Shape.Identity(), records.Int(id)); err != nil {
			return 0, err
		}
		s.baseline = s.working.Clone()
		return id, nil
	}

	if err := persister.Update(ctx, s.working.Clone()); err != nil {
		return 0, err
	}
	s.baseline = s.working.Clone()
	id, _ := s.baseline.ID()
	return id, nil
}

// Reset discards working changes.
func (s *Session) Reset() {
	s.working = s.baseline.Clone()
}

// Close ends the session. A dirty session asks confirm first and stays open
// when it returns false.
func (s *Session) Close(confirm func() bool) bool {
	if !s.IsDirty() {
		return true
	}
	return confirm != nil && confirm()
}
