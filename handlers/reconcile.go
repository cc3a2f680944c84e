package handlers

import (
	"context"
	"fmt"
	"time"
)

// defaultAcceptedTargetHealthStates is used when --wait-for-tg-states was
// not supplied (spec §4.6 "default {unused, healthy}").
var defaultAcceptedTargetHealthStates = []string{"unused", "healthy"}

// reconcileTargetGroups runs, when enabled, as part of untag_resources:
// for every target-group ARN in scope it deregisters the original instance
// and registers the replacement on the same port, then waits for an
// accepted health state, {unused, healthy} unless --wait-for-tg-states
// names others (spec §4.6, §6 --check-targetgroups/--wait-for-tg-states). Not a named step of its own
// — folded into untag_resources so the 21-step registry stays exactly
// what spec §4.4 names.
func reconcileTargetGroups(ctx context.Context, hc *Context) (int, error) {
	if !hc.Job.Request.CheckTargetGroupsSet {
		return 0, nil
	}
	accepted := hc.Job.Request.WaitForTGStates
	if len(accepted) == 0 {
		accepted = defaultAcceptedTargetHealthStates
	}

	reconciled := 0
	for _, m := range hc.Job.OriginalTargetGroups {
		if err := hc.Adapter.DeregisterTarget(ctx, m.Arn, hc.Job.InstanceID, m.Port); err != nil {
			return reconciled, err
		}
		if err := hc.Adapter.RegisterTarget(ctx, m.Arn, hc.Job.NewInstanceID, m.Port); err != nil {
			return reconciled, err
		}
		if err := waitTargetHealthAccepted(ctx, hc, m.Arn, m.Port, accepted); err != nil {
			return reconciled, err
		}
		reconciled++
	}
	return reconciled, nil
}

func waitTargetHealthAccepted(ctx context.Context, hc *Context, arn string, port int64, accepted []string) error {
	deadline := time.Now().Add(5 * time.Minute)
	for {
		state, err := hc.Adapter.TargetHealthState(ctx, arn, hc.Job.NewInstanceID, port)
		if err != nil {
			return err
		}
		for _, a := range accepted {
			if state == a {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("target %s:%d did not reach an accepted health state in time (last seen %q)", hc.Job.NewInstanceID, port, state)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

// reconcileCloudWatchAlarms runs, when enabled, as part of
// untag_resources: enumerates alarms matching the configured name
// prefixes (or every alarm, when the flag was passed with no values —
// spec §6 "empty or `*` means all") and repoints every InstanceId
// dimension referencing the original instance to the replacement.
func reconcileCloudWatchAlarms(ctx context.Context, hc *Context) (int, error) {
	if !hc.Job.Request.UpdateCWAlarmsSet {
		return 0, nil
	}
	alarms, err := hc.Adapter.AlarmsMatchingPrefixes(ctx, hc.Job.Request.UpdateCWAlarms)
	if err != nil {
		return 0, err
	}
	repointed := 0
	for _, alarm := range alarms {
		if err := hc.Adapter.RepointAlarmInstanceID(ctx, alarm, hc.Job.InstanceID, hc.Job.NewInstanceID); err != nil {
			return repointed, err
		}
		repointed++
	}
	return repointed, nil
}
