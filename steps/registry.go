// Package steps holds the ordered step registry (C4): the fixed,
// addressable sequence of named operations the executor walks through,
// each wired to its handler in C6 (spec.md §4.5).
package steps

import (
	"github.com/jcjorel/ec2-spot-converter-go/handlers"
)

// Step is one named, ordered, resumable unit of work.
type Step struct {
	Name        string
	Description string
	Action      handlers.Func
	// Reversible is false for the steps after checkpoint_instance_state,
	// whose effects cannot be undone. Nothing reads it: whether a
	// --reset-step needs --force is decided by CrossesCheckpoint alone
	// (spec §4.5 "Checkpoint semantics").
	Reversible bool
}

// checkpointStepName is the point-of-no-return named in spec §4.5 step 11.
const checkpointStepName = "checkpoint_instance_state"

// Registry returns the full, fixed 21-step sequence named in spec §4.4;
// those 21 names are part of the external contract because --reset-step
// accepts them. Target-group and CloudWatch-alarm reconciliation are
// optional sub-behaviour of untag_resources itself (spec §4.6 "optional,
// before untag_resources when enabled"), not separate addressable steps —
// folding them in keeps deregister_image step 21 and the registry length
// exactly 21, matching scenario S1's "21 steps, all SUCCESS except step
// 21 SKIPPED".
func Registry() []Step {
	reversible := true
	all := []Step{
		{"read_state_table", "ensure state table and job record are ready", handlers.ReadStateTable, reversible},
		{"discover_instance_state", "capture original instance, volumes, ENIs, addresses", handlers.DiscoverInstanceState, reversible},
		{"wait_stopped_instance", "ensure the instance is stopped", handlers.WaitStoppedInstance, reversible},
		{"tag_resources", "tag instance, ENIs and volumes with the job id", handlers.TagResources, reversible},
		{"get_volume_details", "describe every attached volume", handlers.GetVolumeDetails, reversible},
		{"detach_volumes", "detach volumes not flowing through the AMI", handlers.DetachVolumes, reversible},
		{"wait_volume_detach", "wait for those volumes to report detached", handlers.WaitVolumeDetach, reversible},
		{"start_ami_creation", "request a no-reboot AMI of the instance", handlers.StartAMICreation, reversible},
		{"prepare_network_interfaces", "set delete_on_termination=false on every ENI", handlers.PrepareNetworkInterfaces, reversible},
		{"wait_ami_ready", "wait for the AMI to become available", handlers.WaitAMIReady, reversible},
		{checkpointStepName, "freeze original_* fields, point of no return", handlers.CheckpointInstanceState, reversible},
		{"terminate_instance", "terminate the original instance", handlers.TerminateInstance, false},
		{"wait_resource_release", "wait for ENIs and elastic IPs to release", handlers.WaitResourceRelease, false},
		{"create_new_instance", "launch the replacement from the projected spec", handlers.CreateNewInstance, false},
		{"wait_new_instance_running", "wait for the replacement to reach running", handlers.WaitNewInstanceRunning, false},
		{"reattach_volumes", "reattach originally-detached volumes", handlers.ReattachVolumes, false},
		{"configure_network_interfaces", "restore each ENI's original delete_on_termination", handlers.ConfigureNetworkInterfaces, false},
		{"manage_elastic_ip", "reassociate captured elastic IPs", handlers.ManageElasticIP, false},
		{"reboot_if_needed", "reboot the replacement if recommended or requested", handlers.RebootIfNeeded, false},
		{"untag_resources", "reconcile target groups/alarms, then untag every resource", handlers.UntagResources, false},
		{"deregister_image", "deregister the backup AMI if --delete-ami was set", handlers.DeregisterImage, false},
	}
	return all
}

// IndexOf returns the position of the named step, or -1.
func IndexOf(all []Step, name string) int {
	for i, s := range all {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// IsCheckpoint reports whether name is the point-of-no-return step.
func IsCheckpoint(name string) bool {
	return name == checkpointStepName
}

// CrossesCheckpoint reports whether resetting to targetStep would rewind
// last_successful_step_name from at-or-after the checkpoint to before it
// (spec §4.5 "Refuse resets past checkpoint_instance_state unless --force").
func CrossesCheckpoint(all []Step, lastSuccessful, targetStep string) bool {
	lastIdx := IndexOf(all, lastSuccessful)
	targetIdx := IndexOf(all, targetStep)
	checkpointIdx := IndexOf(all, checkpointStepName)
	if lastIdx < 0 || targetIdx < 0 {
		return false
	}
	return lastIdx >= checkpointIdx && targetIdx <= checkpointIdx
}
