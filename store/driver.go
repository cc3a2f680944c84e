// Package store implements the job record store (C2): get/put of one
// opaque JSON record keyed by the original instance id, plus idempotent
// creation of the backing table (spec.md §4.2).
package store

import (
	"context"

	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// Driver is the minimal job-record persistence contract, grounded on the
// teacher's dbdriver.Driver abstraction (Get/Set/Delete/List over a
// collection+key pair) narrowed to the single collection this tool needs.
type Driver interface {
	// EnsureTable idempotently creates the backing storage; returns nil
	// (not an error) when it already exists.
	EnsureTable(ctx context.Context) error
	// Load returns the record for instanceID, or ErrNotFound.
	Load(ctx context.Context, instanceID string) (*record.Job, error)
	// Save overwrites the record for job.InstanceID. A Load immediately
	// following a completed Save must return the just-written value
	// (strongly-consistent read, spec §4.2).
	Save(ctx context.Context, job *record.Job) error
}

// ErrNotFound is returned by Load when no record exists for the instance
// id yet.
var ErrNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "job record not found" }
