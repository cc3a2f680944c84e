// Package launchspec implements the launch-spec projector (C3): a pure,
// deterministic function from a captured original-instance snapshot plus a
// conversion request to the exact RunInstances input the provider needs to
// create the replacement (spec.md §4.3). No grounding file in the example
// pack implements this exact transform — it is the spec's novel core — so
// it is written as one small pure function with no I/O, the way the
// teacher keeps its own decision logic (cmn helpers) free of provider
// calls.
package launchspec

import (
	"encoding/json"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// Warning is a projector-raised note (e.g. "KMS key ignored because volume
// already encrypted") that the caller must fold into record.Job.Warnings.
type Warning struct {
	Message string
}

// Project is the pure function spec.md §4.3 names: project(original_state,
// request) -> launch_spec. Calling it twice with the same inputs produces
// byte-identical specs (spec §8 property 5); it performs no network I/O
// and does not read job.InstanceID. The original id still appears once in
// the output: as the value of the job-id tag, since JobID equals it.
func Project(job *record.Job) (*ec2.RunInstancesInput, []Warning, error) {
	orig := job.OriginalInstanceState
	req := job.Request
	var warnings []Warning

	spec := &ec2.RunInstancesInput{
		ImageId:      aws.String(job.AmiID),
		MinCount:     aws.Int64(1),
		MaxCount:     aws.Int64(1),
		Placement: &ec2.Placement{
			AvailabilityZone: orig.Placement.AvailabilityZone,
			Tenancy:          orig.Placement.Tenancy,
		},
		IamInstanceProfile: copyIamProfile(orig.IamInstanceProfile),
		Monitoring:         &ec2.RunInstancesMonitoringEnabled{Enabled: aws.Bool(orig.Monitoring != nil && aws.StringValue(orig.Monitoring.State) != ec2.MonitoringStateDisabled)},
		EbsOptimized:       orig.EbsOptimized,
		MetadataOptions:    copyMetadataOptions(orig.MetadataOptions),
		EnclaveOptions:     copyEnclaveOptions(orig.EnclaveOptions),
	}

	if orig.Placement.GroupName != nil && *orig.Placement.GroupName != "" {
		spec.Placement.GroupName = orig.Placement.GroupName
	}

	if req.TargetInstanceType != "" {
		spec.InstanceType = aws.String(req.TargetInstanceType)
	} else {
		spec.InstanceType = orig.InstanceType
	}

	if !req.IgnoreHibernationOptions && orig.HibernationOptions != nil {
		spec.HibernationOptions = &ec2.HibernationOptionsRequest{Configured: orig.HibernationOptions.Configured}
	}

	for _, acc := range orig.ElasticGpuAssociations {
		spec.ElasticGpuSpecification = append(spec.ElasticGpuSpecification, &ec2.ElasticGpuSpecification{
			Type: acc.ElasticGpuType,
		})
	}
	for _, acc := range orig.ElasticInferenceAcceleratorAssociations {
		spec.ElasticInferenceAccelerators = append(spec.ElasticInferenceAccelerators, &ec2.ElasticInferenceAccelerator{
			Type: acc.ElasticInferenceAcceleratorArn,
		})
	}

	if err := applyCPUOptions(spec, orig, req, &warnings); err != nil {
		return nil, warnings, err
	}

	applyNetworkInterfaces(spec, job.OriginalNetworkInterfaces)

	applyBlockDeviceMappings(spec, job.OriginalVolumeDetails, req, &warnings)

	applyTagSpecifications(spec, orig, job.JobID)

	WithUserData(spec, job.OriginalUserData, req.IgnoreUserData)

	switch req.TargetBillingModel {
	case record.BillingSpot:
		opts := &ec2.InstanceMarketOptionsRequest{
			MarketType: aws.String(ec2.MarketTypeSpot),
			SpotOptions: &ec2.SpotMarketOptions{
				SpotInstanceType:             aws.String(ec2.SpotInstanceTypePersistent),
				InstanceInterruptionBehavior: aws.String(ec2.InstanceInterruptionBehaviorStop),
			},
		}
		if req.MaxSpotPrice != "" {
			opts.SpotOptions.MaxPrice = aws.String(req.MaxSpotPrice)
		}
		spec.InstanceMarketOptions = opts
	case record.BillingOnDemand:
		spec.InstanceMarketOptions = nil
	}

	return spec, warnings, nil
}

// WithUserData threads the separately-fetched user-data blob (base64, as
// the EC2 API returns it) into an already-projected spec, unless the
// operator asked to ignore it (spec §4.3 "user-data (unless overridden)").
func WithUserData(spec *ec2.RunInstancesInput, userData string, ignore bool) {
	if ignore || userData == "" {
		return
	}
	spec.UserData = aws.String(userData)
}

func copyIamProfile(p *ec2.IamInstanceProfile) *ec2.IamInstanceProfileSpecification {
	if p == nil {
		return nil
	}
	return &ec2.IamInstanceProfileSpecification{Arn: p.Arn}
}

// copyEnclaveOptions translates the describe-response shape
// (ec2.EnclaveOptions) into the RunInstances request shape
// (ec2.EnclaveOptionsRequest) — distinct named types, not aliases.
func copyEnclaveOptions(e *ec2.EnclaveOptions) *ec2.EnclaveOptionsRequest {
	if e == nil {
		return nil
	}
	return &ec2.EnclaveOptionsRequest{Enabled: e.Enabled}
}

func copyMetadataOptions(m *ec2.InstanceMetadataOptionsResponse) *ec2.InstanceMetadataOptionsRequest {
	if m == nil {
		return nil
	}
	return &ec2.InstanceMetadataOptionsRequest{
		HttpEndpoint:            m.HttpEndpoint,
		HttpTokens:              m.HttpTokens,
		HttpPutResponseHopLimit: m.HttpPutResponseHopLimit,
	}
}

// applyCPUOptions implements spec §4.3's three-way rule: "unless overridden
// or explicitly set" — ignore="ignore" suppresses CPU options entirely,
// an explicit {CoreCount,ThreadsPerCore} request wins, otherwise the
// original instance's CpuOptions are copied forward.
func applyCPUOptions(spec *ec2.RunInstancesInput, orig *ec2.Instance, req record.Request, warnings *[]Warning) error {
	if req.CPUOptions != nil && req.CPUOptions.Ignore {
		return nil
	}
	if req.CPUOptions != nil && (req.CPUOptions.CoreCount > 0 || req.CPUOptions.ThreadsPerCore > 0) {
		spec.CpuOptions = &ec2.CpuOptionsRequest{
			CoreCount:      aws.Int64(req.CPUOptions.CoreCount),
			ThreadsPerCore: aws.Int64(req.CPUOptions.ThreadsPerCore),
		}
		return nil
	}
	if orig.CpuOptions != nil {
		spec.CpuOptions = &ec2.CpuOptionsRequest{
			CoreCount:      orig.CpuOptions.CoreCount,
			ThreadsPerCore: orig.CpuOptions.ThreadsPerCore,
		}
	}
	return nil
}

// applyNetworkInterfaces re-attaches each preserved ENI by id (spec §4.6
// "create_new_instance": "Re-attaches ENIs by referencing their existing
// identifiers"). DeleteOnTermination is left unset here: it is still
// false from prepare_network_interfaces and is restored to its original
// value afterward by configure_network_interfaces, never at creation.
func applyNetworkInterfaces(spec *ec2.RunInstancesInput, enis []record.NetworkInterfaceDetail) {
	for _, eni := range enis {
		spec.NetworkInterfaces = append(spec.NetworkInterfaces, &ec2.InstanceNetworkInterfaceSpecification{
			NetworkInterfaceId: aws.String(eni.NetworkInterfaceID),
			DeviceIndex:        aws.Int64(eni.DeviceIndex),
		})
	}
}

// applyBlockDeviceMappings emits a mapping containing ONLY the root device
// and any other original volume with DeleteOnTermination=true (spec §4.3);
// everything else is reattached post-boot by the "reattach_volumes" step.
// When a KMS key is supplied, unencrypted entries are rewritten to request
// encryption with it; already-encrypted entries are left alone and a
// warning is raised (spec §4.3 last bullet).
func applyBlockDeviceMappings(spec *ec2.RunInstancesInput, volumes []record.VolumeDetail, req record.Request, warnings *[]Warning) {
	for _, v := range volumes {
		if !v.DeleteOnTermination {
			continue
		}
		ebs := &ec2.EbsBlockDevice{
			VolumeType:          aws.String(v.VolumeType),
			VolumeSize:          aws.Int64(v.SizeGiB),
			DeleteOnTermination: aws.Bool(true),
			Encrypted:           aws.Bool(v.Encrypted),
		}
		if v.IOPS > 0 {
			ebs.Iops = aws.Int64(v.IOPS)
		}
		if v.ThroughputMiBps > 0 {
			ebs.Throughput = aws.Int64(v.ThroughputMiBps)
		}
		if req.VolumeKmsKeyID != "" {
			if v.Encrypted {
				*warnings = append(*warnings, Warning{Message: "KMS key ignored for volume " + v.VolumeID + ": already encrypted"})
			} else {
				ebs.Encrypted = aws.Bool(true)
				ebs.KmsKeyId = aws.String(req.VolumeKmsKeyID)
			}
		}
		spec.BlockDeviceMappings = append(spec.BlockDeviceMappings, &ec2.BlockDeviceMapping{
			DeviceName: aws.String(v.DeviceName),
			Ebs:        ebs,
		})
	}
}

func applyTagSpecifications(spec *ec2.RunInstancesInput, orig *ec2.Instance, jobID string) {
	var tags []*ec2.Tag
	for _, t := range orig.Tags {
		tags = append(tags, &ec2.Tag{Key: t.Key, Value: t.Value})
	}
	tags = append(tags, &ec2.Tag{Key: aws.String(record.TagKey), Value: aws.String(jobID)})
	spec.TagSpecifications = []*ec2.TagSpecification{
		{ResourceType: aws.String(ec2.ResourceTypeInstance), Tags: tags},
	}
}

// DeviceIndexFor returns an ENI's device index from its attachment, or 0
// when it has no attachment. Neither Project nor the handlers call it.
func DeviceIndexFor(eni *ec2.NetworkInterface) int64 {
	if eni.Attachment == nil || eni.Attachment.DeviceIndex == nil {
		return 0
	}
	return aws.Int64Value(eni.Attachment.DeviceIndex)
}

// ParseCPUOptionsFlag decodes the --cpu-options flag value (spec §6): the
// literal string "ignore", or JSON {"CoreCount":N,"ThreadsPerCore":M}.
func ParseCPUOptionsFlag(raw string) (*record.CPUOptions, error) {
	if raw == "" {
		return nil, nil
	}
	if raw == "ignore" {
		return &record.CPUOptions{Ignore: true}, nil
	}
	// Decoded through the flag's own key names: record.CPUOptions carries
	// snake_case json tags for the persisted record, which "CoreCount" and
	// "ThreadsPerCore" would not match.
	var flag struct {
		CoreCount      int64
		ThreadsPerCore int64
	}
	if err := json.Unmarshal([]byte(raw), &flag); err != nil {
		return nil, err
	}
	return &record.CPUOptions{CoreCount: flag.CoreCount, ThreadsPerCore: flag.ThreadsPerCore}, nil
}

// FormatPrice renders a float spot price as the string the EC2 API wants.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
