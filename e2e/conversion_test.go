package e2e_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/jcjorel/ec2-spot-converter-go/cloud/cloudmock"
	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/e2e"
	"github.com/jcjorel/ec2-spot-converter-go/executor"
	"github.com/jcjorel/ec2-spot-converter-go/record"
	"github.com/jcjorel/ec2-spot-converter-go/steps"
	"github.com/jcjorel/ec2-spot-converter-go/store"
)

var _ = Describe("conversion", func() {
	var (
		adapter    *cloudmock.Adapter
		instanceID string
		driver     *store.BuntDriver
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		adapter, instanceID = e2e.Fixture("")
		var err error
		driver, err = store.NewBuntDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	// S1: On-Demand -> Spot, running instance with --stop-instance, 2
	// ENIs, 3 volumes (one multi-attached), 1 EIP, no target groups, no
	// KMS (spec §8).
	It("converts on-demand to spot, preserving ENIs and the elastic IP", func() {
		req := record.Request{TargetBillingModel: record.BillingSpot, StopInstance: true}

		job, err := executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{})
		Expect(err).NotTo(HaveOccurred())

		Expect(job.ConversionStatus).To(Equal(record.ConversionDone))
		Expect(job.NewInstanceID).NotTo(BeEmpty())
		Expect(job.NewInstanceID).NotTo(Equal(instanceID))
		Expect(job.StepCount).To(Equal(21))
		Expect(steps.Registry()).To(HaveLen(21))

		newInst, err := adapter.DescribeInstance(ctx, job.NewInstanceID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*newInst.InstanceLifecycle).To(Equal("spot"))

		addr, err := adapter.DescribeAddress(ctx, job.OriginalAddresses[0].AllocationID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*addr.PrivateIpAddress).To(Equal("10.0.0.5"))
		Expect(*addr.NetworkInterfaceId).To(Equal(job.OriginalNetworkInterfaces[0].NetworkInterfaceID))
	})

	// S3: spot -> on-demand of an instance whose spot request is
	// cancelled, invoked with --do-not-require-stopped-instance.
	It("bypasses wait_stopped_instance for an orphan spot instance", func() {
		adapter, instanceID = e2e.Fixture("spot")
		inst, err := adapter.DescribeInstance(ctx, instanceID)
		Expect(err).NotTo(HaveOccurred())
		inst.SpotInstanceRequestId = stringPtr("sir-cancelled0000000")
		adapter.SpotRequestStates["sir-cancelled0000000"] = "cancelled"

		req := record.Request{TargetBillingModel: record.BillingOnDemand, DoNotRequireStoppedInstance: true, DoNotPauseOnMajorWarnings: true}
		job, err := executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(job.ConversionStatus).To(Equal(record.ConversionDone))
		Expect(job.Warnings).NotTo(BeEmpty())

		newInst, err := adapter.DescribeInstance(ctx, job.NewInstanceID)
		Expect(err).NotTo(HaveOccurred())
		Expect(newInst.InstanceLifecycle).To(BeNil())
	})

	// S4: crash injection after create_new_instance succeeds but before
	// the record save — the next run must find the tagged replacement
	// instead of launching a second one.
	It("reuses a previously-launched replacement instance found by tag", func() {
		req := record.Request{TargetBillingModel: record.BillingSpot, StopInstance: true}

		job, err := executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{})
		Expect(err).NotTo(HaveOccurred())
		firstNewID := job.NewInstanceID

		// Rebuild the state a crash right after the launch would leave: the
		// record stops at the step before create_new_instance and holds no
		// new instance id, while the replacement still carries the job-id
		// tag it was launched with.
		crashed := job
		crashed.LastSuccessfulStepName = "wait_resource_release"
		crashed.NewInstanceID = ""
		crashed.ConversionStatus = record.ConversionActive
		Expect(adapter.TagResources(ctx, []string{firstNewID}, record.TagKey, instanceID)).To(Succeed())
		Expect(driver.Save(ctx, crashed)).To(Succeed())

		resumed, err := executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resumed.NewInstanceID).To(Equal(firstNewID))
	})

	// S6: replay after conversion_status=success with --delete-ami.
	It("deregisters the AMI on a --delete-ami replay after success", func() {
		req := record.Request{TargetBillingModel: record.BillingSpot, StopInstance: true}
		job, err := executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{})
		Expect(err).NotTo(HaveOccurred())
		amiID := job.AmiID
		Expect(amiID).NotTo(BeEmpty())

		req.DeleteAMI = true
		job, err = executor.Run(ctx, adapter, driver, cmn.NopLogger(), instanceID, req, executor.Options{ResetStep: "deregister_image"})
		Expect(err).NotTo(HaveOccurred())
		Expect(job.ConversionStatus).To(Equal(record.ConversionDone))

		_, stillExists := adapter.Images[amiID]
		Expect(stillExists).To(BeFalse())
	})
})

func stringPtr(s string) *string { return &s }
