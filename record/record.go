// Package record defines the single persisted entity of a conversion job
// (spec.md §3) and the small set of types the executor mutates directly.
package record

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/ec2"
)

// BillingModel is one of the two lifecycle/pricing classes this tool
// converts between.
type BillingModel string

const (
	BillingSpot      BillingModel = "spot"
	BillingOnDemand  BillingModel = "on-demand"
	ConversionActive string       = "in-progress"
	ConversionDone   string       = "success"

	// TagKey is applied to every resource touched by a job for the
	// duration of the critical window (spec §4.6, §6 "Resource-tag
	// contract"); removed only after a successful completion.
	TagKey = "ec2-spot-converter:job-id"

	// AMINamePrefix backs both creation and idempotent re-discovery of the
	// backup image (spec §6 "AMI naming").
	AMINamePrefix = "ec2-spot-converter-"
)

// VolumeDetail captures the subset of an EBS volume's attachment that must
// survive the conversion (spec §3 original_volume_details).
type VolumeDetail struct {
	VolumeID            string `json:"volume_id"`
	DeviceName           string `json:"device_name"`
	MultiAttachEnabled   bool   `json:"multi_attach_enabled"`
	DeleteOnTermination  bool   `json:"delete_on_termination"`
	SizeGiB              int64  `json:"size_gib"`
	VolumeType           string `json:"volume_type"`
	IOPS                 int64  `json:"iops,omitempty"`
	ThroughputMiBps      int64  `json:"throughput_mibps,omitempty"`
	Encrypted            bool   `json:"encrypted"`
	KmsKeyID             string `json:"kms_key_id,omitempty"`
}

// SecondaryIP is one non-primary private IP on an ENI.
type SecondaryIP struct {
	PrivateIPAddress string `json:"private_ip_address"`
}

// NetworkInterfaceDetail captures the ENI state needed to restore network
// identity after re-creation (spec §3 original_network_interfaces).
type NetworkInterfaceDetail struct {
	NetworkInterfaceID         string        `json:"network_interface_id"`
	AttachmentID               string        `json:"attachment_id,omitempty"`
	DeviceIndex                int64         `json:"device_index"`
	SubnetID                   string        `json:"subnet_id"`
	PrivateIPAddress           string        `json:"private_ip_address"`
	SecondaryPrivateIPs        []SecondaryIP `json:"secondary_private_ips,omitempty"`
	SecurityGroupIDs           []string      `json:"security_group_ids"`
	SourceDestCheck            bool          `json:"source_dest_check"`
	OriginalDeleteOnTermination bool         `json:"original_delete_on_termination"`
}

// AddressDetail captures an elastic IP association so it can be re-bound
// post-conversion (spec §3 original_addresses).
type AddressDetail struct {
	AllocationID     string `json:"allocation_id"`
	AssociationID    string `json:"association_id"`
	PrivateIPAddress string `json:"private_ip_address"`
}

// TargetGroupMembership is one (arn, port) the instance was registered in.
type TargetGroupMembership struct {
	Arn  string `json:"arn"`
	Port int64  `json:"port"`
}

// Warning is a timed, accumulated non-fatal note (spec §4.7, §7, §9).
type Warning struct {
	Step    string    `json:"step"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// CPUOptions mirrors the --cpu-options flag's decoded JSON, plus the
// "ignore" sentinel (spec §6).
type CPUOptions struct {
	CoreCount       int64 `json:"core_count,omitempty"`
	ThreadsPerCore  int64 `json:"threads_per_core,omitempty"`
	Ignore          bool  `json:"ignore,omitempty"`
}

// Request is the set of operator inputs the record must remember across
// resumes (spec §3 "Operator inputs").
type Request struct {
	TargetBillingModel        BillingModel `json:"target_billing_model"`
	TargetInstanceType        string       `json:"target_instance_type,omitempty"`
	CPUOptions                *CPUOptions  `json:"cpu_options,omitempty"`
	MaxSpotPrice               string       `json:"max_spot_price,omitempty"`
	VolumeKmsKeyID             string       `json:"volume_kms_key_id,omitempty"`
	IgnoreUserData             bool         `json:"ignore_userdata,omitempty"`
	IgnoreHibernationOptions   bool         `json:"ignore_hibernation_options,omitempty"`
	StopInstance               bool         `json:"stop_instance,omitempty"`
	RebootIfNeeded              bool         `json:"reboot_if_needed,omitempty"`
	DoNotRequireStoppedInstance bool        `json:"do_not_require_stopped_instance,omitempty"`
	// CheckTargetGroupsSet/UpdateCWAlarmsSet record whether the operator
	// passed the flag at all, independent of whether any values followed
	// it -- "passed with zero values" means "all" (spec §6), which is
	// indistinguishable from "not passed" by looking at the slice alone.
	CheckTargetGroups           []string    `json:"check_target_groups,omitempty"`
	CheckTargetGroupsSet        bool        `json:"check_target_groups_set,omitempty"`
	WaitForTGStates              []string   `json:"wait_for_tg_states,omitempty"`
	UpdateCWAlarms                []string  `json:"update_cw_alarms,omitempty"`
	UpdateCWAlarmsSet             bool      `json:"update_cw_alarms_set,omitempty"`
	DeleteAMI                    bool       `json:"delete_ami,omitempty"`
	Force                        bool       `json:"force,omitempty"`
	DoNotPauseOnMajorWarnings    bool       `json:"do_not_pause_on_major_warnings,omitempty"`
}

// Job is the single persisted entity keyed by original instance id
// (spec.md §3). Provider snapshots are stored as the actual typed
// aws-sdk-go structs: they round-trip through encoding/json by Go field
// name (aws-sdk-go v1 types carry no custom json tags) and therefore act
// as the "opaque JSON subtree" the design notes call for, while the
// executor itself only ever reads/writes the small explicitly-typed
// fields below them.
type Job struct {
	InstanceID            string    `json:"instance_id"`
	StartDate              time.Time `json:"start_date"`
	LastUpdateDate          time.Time `json:"last_update_date"`
	EndDate                 time.Time `json:"end_date,omitempty"`
	ConversionStatus        string    `json:"conversion_status,omitempty"`
	LastSuccessfulStepName  string    `json:"last_successful_step_name,omitempty"`
	StepCount               int       `json:"step_count"`
	JobID                   string    `json:"job_id"`

	SourceBillingModel BillingModel `json:"source_billing_model"`
	TargetBillingModel BillingModel `json:"target_billing_model"`

	OriginalInstanceState       *ec2.Instance            `json:"original_instance_state,omitempty"`
	OriginalVolumeDetails       []VolumeDetail           `json:"original_volume_details,omitempty"`
	OriginalNetworkInterfaces   []NetworkInterfaceDetail `json:"original_network_interfaces,omitempty"`
	OriginalAddresses           []AddressDetail          `json:"original_addresses,omitempty"`
	OriginalTargetGroups        []TargetGroupMembership  `json:"original_target_groups,omitempty"`
	// OriginalUserData is the base64 user-data blob, fetched separately
	// from the instance describe-response via DescribeInstanceAttribute
	// (the EC2 API never inlines it on Instance itself).
	OriginalUserData string `json:"original_user_data,omitempty"`

	AmiID           string    `json:"ami_id,omitempty"`
	AmiCreationDate time.Time `json:"ami_creation_date,omitempty"`

	NewInstanceID string `json:"new_instance_id,omitempty"`

	RebootRecommended bool `json:"reboot_recommended,omitempty"`

	Request Request `json:"request"`

	Warnings []Warning `json:"warnings,omitempty"`

	// LeaseOwner/LeaseExpiry are reserved for the lease discussed in spec
	// §9 "Open question — simultaneous runs on the same instance id". The
	// executor neither sets nor checks them, so concurrent runs on the
	// same instance id are not detected.
	LeaseOwner  string    `json:"lease_owner,omitempty"`
	LeaseExpiry time.Time `json:"lease_expiry,omitempty"`
}

// AddWarning appends a timed warning (spec §7 "accumulated and re-printed
// at the end of the run").
func (j *Job) AddWarning(step, format string, args ...interface{}) {
	j.Warnings = append(j.Warnings, Warning{
		Step:    step,
		Message: sprintf(format, args...),
		At:      nowFunc(),
	})
}

// nowFunc is an indirection so tests can freeze time deterministically.
var nowFunc = time.Now

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
