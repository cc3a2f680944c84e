// Package executor implements C5: the main control loop that loads or
// creates a job record, applies preconditions, resumes from the last
// successful step, and walks the step registry to completion
// (spec.md §4.5).
package executor

import (
	"context"
	"time"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/handlers"
	"github.com/jcjorel/ec2-spot-converter-go/outcome"
	"github.com/jcjorel/ec2-spot-converter-go/precheck"
	"github.com/jcjorel/ec2-spot-converter-go/record"
	"github.com/jcjorel/ec2-spot-converter-go/steps"
	"github.com/jcjorel/ec2-spot-converter-go/store"
)

// Options carries the parts of the operator's invocation the executor
// needs beyond the conversion request itself (spec §6).
type Options struct {
	ResetStep string
}

// Run drives one conversion from wherever the persisted record says to
// resume, to either completion or the first fatal error (spec §4.5).
func Run(ctx context.Context, adapter cloud.Adapter, driver store.Driver, log cmn.Logger, instanceID string, req record.Request, opts Options) (*record.Job, error) {
	if err := driver.EnsureTable(ctx); err != nil {
		return nil, cmn.NewPersistenceFailure(err)
	}

	job, err := loadOrCreate(ctx, driver, instanceID, req)
	if err != nil {
		return nil, err
	}

	if job.ConversionStatus == record.ConversionDone && opts.ResetStep == "" {
		log.WithFields(cmn.Fields{"instance_id": instanceID, "new_instance_id": job.NewInstanceID}).
			Infof("conversion already completed, replaying cached result")
		for _, w := range job.Warnings {
			log.WithFields(cmn.Fields{"step": w.Step}).Warnf("%s", w.Message)
		}
		return job, nil
	}

	registry := steps.Registry()

	if opts.ResetStep != "" {
		if steps.IndexOf(registry, opts.ResetStep) < 0 {
			return nil, cmn.NewPreconditionFailure("unknown step name %q", opts.ResetStep)
		}
		if steps.CrossesCheckpoint(registry, job.LastSuccessfulStepName, opts.ResetStep) && !req.Force {
			return nil, cmn.NewPreconditionFailure("--reset-step %s would rewind past checkpoint_instance_state: pass --force to acknowledge the destroyed original instance cannot be restored", opts.ResetStep)
		}
		job.LastSuccessfulStepName = precedingStepName(registry, opts.ResetStep)
		job.ConversionStatus = record.ConversionActive
		if err := driver.Save(ctx, job); err != nil {
			return nil, cmn.NewPersistenceFailure(err)
		}
	}

	if err := precheck.Check(ctx, adapter, job); err != nil {
		return nil, err
	}

	resumeIdx := 0
	if job.LastSuccessfulStepName != "" {
		idx := steps.IndexOf(registry, job.LastSuccessfulStepName)
		if idx < 0 {
			return nil, cmn.NewPreconditionFailure("persisted last_successful_step_name %q is not a known step", job.LastSuccessfulStepName)
		}
		resumeIdx = idx + 1
	}

	hc := &handlers.Context{Adapter: adapter, Log: log, Job: job}

	for i := resumeIdx; i < len(registry); i++ {
		step := registry[i]
		log.Infof("[STEP %d/%d] %s: %s", i+1, len(registry), step.Name, step.Description)

		out, err := step.Action(ctx, hc)
		if err != nil {
			return job, err
		}

		switch out.Kind {
		case outcome.Skipped:
			log.Infof("[STEP %d/%d] %s SKIPPED: %s", i+1, len(registry), step.Name, out.Detail)
		default:
			log.Infof("[STEP %d/%d] %s SUCCESS: %s", i+1, len(registry), step.Name, out.Detail)
		}

		job.LastSuccessfulStepName = step.Name
		job.LastUpdateDate = time.Now()
		if err := driver.Save(ctx, job); err != nil {
			return job, cmn.NewPersistenceFailure(err)
		}
	}

	job.ConversionStatus = record.ConversionDone
	job.EndDate = time.Now()
	if err := driver.Save(ctx, job); err != nil {
		return job, cmn.NewPersistenceFailure(err)
	}

	for _, w := range job.Warnings {
		log.WithFields(cmn.Fields{"step": w.Step}).Warnf("%s", w.Message)
	}

	return job, nil
}

func loadOrCreate(ctx context.Context, driver store.Driver, instanceID string, req record.Request) (*record.Job, error) {
	job, err := driver.Load(ctx, instanceID)
	if err == nil {
		job.Request = req
		return job, nil
	}
	if err != store.ErrNotFound {
		return nil, cmn.NewPersistenceFailure(err)
	}
	now := time.Now()
	job = &record.Job{
		InstanceID:       instanceID,
		JobID:            instanceID,
		StartDate:        now,
		LastUpdateDate:   now,
		ConversionStatus: record.ConversionActive,
		Request:          req,
		StepCount:        len(steps.Registry()),
	}
	return job, nil
}

func precedingStepName(all []steps.Step, name string) string {
	idx := steps.IndexOf(all, name)
	if idx <= 0 {
		return ""
	}
	return all[idx-1].Name
}
