package store

import (
	"context"

	"github.com/tidwall/buntdb"

	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

const jobsCollection = "jobs"

// BuntDriver is the offline/test implementation of Driver, adapted from
// the teacher's dbdriver.BuntDriver (dbdriver/bunt.go): same embedded
// buntdb.DB, same "collection##key" path scheme, narrowed to the single
// "jobs" collection this tool needs. Used by the ginkgo e2e suite so
// conversions can run end-to-end without a real DynamoDB table; the
// command-line tool always uses DynamoDBDriver.
type BuntDriver struct {
	db *buntdb.DB
}

var _ Driver = (*BuntDriver)(nil)

// NewBuntDriver opens (or creates) the local state file. Pass ":memory:"
// for a purely in-memory store, as the e2e suite does.
func NewBuntDriver(path string) (*BuntDriver, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	db.SetConfig(buntdb.Config{SyncPolicy: buntdb.EverySecond})
	return &BuntDriver{db: db}, nil
}

// EnsureTable is a no-op: buntdb has no table-creation step; the
// collection is created implicitly on first Set.
func (b *BuntDriver) EnsureTable(context.Context) error { return nil }

func (b *BuntDriver) Load(_ context.Context, instanceID string) (*record.Job, error) {
	var payload string
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(makeKey(instanceID))
		if err != nil {
			return err
		}
		payload = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, cmn.NewPersistenceFailure(err)
	}
	job := &record.Job{}
	if err := cmn.Unmarshal([]byte(payload), job); err != nil {
		return nil, cmn.NewPersistenceFailure(err)
	}
	return job, nil
}

func (b *BuntDriver) Save(_ context.Context, job *record.Job) error {
	payload := string(cmn.MustMarshal(job))
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(makeKey(job.InstanceID), payload, nil)
		return err
	})
	if err != nil {
		return cmn.NewPersistenceFailure(err)
	}
	return nil
}

// Close releases the underlying file handle.
func (b *BuntDriver) Close() error { return b.db.Close() }

func makeKey(instanceID string) string {
	return jobsCollection + "##" + instanceID
}
