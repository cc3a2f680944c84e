// Command ec2-spot-converter converts a live EC2 instance between billing
// models, or replaces it with a different instance type/CPU configuration,
// driving the resumable step sequence in packages executor/steps/handlers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/executor"
	"github.com/jcjorel/ec2-spot-converter-go/launchspec"
	"github.com/jcjorel/ec2-spot-converter-go/record"
	"github.com/jcjorel/ec2-spot-converter-go/store"
)

// version is stamped at build time: -ldflags "-X main.version=1.2.3".
var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "ec2-spot-converter"
	app.Usage = "convert a live EC2 instance between on-demand and persistent spot, or replace its instance type/CPU configuration"
	app.Version = version
	app.Flags = convertFlags
	app.Action = runConvert

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runConvert(c *cli.Context) error {
	log := cmn.NewLogger(c.Bool(debugFlag.Name))

	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		return err
	}

	tableName := c.String(dynamodbTableNameFlag.Name)
	driver := store.NewDynamoDBDriver(sess, tableName, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Infof("interrupted, the next invocation resumes from the last saved step")
		cancel()
	}()

	if c.Bool(generateDynamoDBTableFlag.Name) {
		if err := driver.EnsureTable(ctx); err != nil {
			return err
		}
		log.Infof("state table %q ready", tableName)
		return nil
	}

	instanceID := c.String(instanceIDFlag.Name)
	if instanceID == "" {
		return cli.NewExitError("--instance-id is required", 1)
	}

	req, err := requestFromContext(c)
	if err != nil {
		return err
	}

	adapter := cloud.NewAdapter(sess, log)

	job, err := executor.Run(ctx, adapter, driver, log, instanceID, req, executor.Options{ResetStep: c.String(resetStepFlag.Name)})
	if err != nil {
		return err
	}

	log.Infof("conversion complete: %s -> %s", job.InstanceID, job.NewInstanceID)
	return nil
}

func requestFromContext(c *cli.Context) (record.Request, error) {
	cpuOptions, err := launchspec.ParseCPUOptionsFlag(c.String(cpuOptionsFlag.Name))
	if err != nil {
		return record.Request{}, fmt.Errorf("--cpu-options: %w", err)
	}

	billingModel := record.BillingModel(c.String(targetBillingModelFlag.Name))
	if billingModel != record.BillingSpot && billingModel != record.BillingOnDemand {
		return record.Request{}, fmt.Errorf("--target-billing-model must be %q or %q", record.BillingSpot, record.BillingOnDemand)
	}

	return record.Request{
		TargetBillingModel:          billingModel,
		TargetInstanceType:          c.String(targetInstanceTypeFlag.Name),
		CPUOptions:                  cpuOptions,
		MaxSpotPrice:                c.String(maxSpotPriceFlag.Name),
		VolumeKmsKeyID:              c.String(volumeKmsKeyIDFlag.Name),
		IgnoreUserData:              c.Bool(ignoreUserDataFlag.Name),
		IgnoreHibernationOptions:    c.Bool(ignoreHibernationOptionsFlag.Name),
		StopInstance:                c.Bool(stopInstanceFlag.Name),
		RebootIfNeeded:              c.Bool(rebootIfNeededFlag.Name),
		DoNotRequireStoppedInstance: c.Bool(doNotRequireStoppedInstanceFlag.Name),
		CheckTargetGroups:           c.StringSlice(checkTargetGroupsFlag.Name),
		CheckTargetGroupsSet:        c.IsSet(checkTargetGroupsFlag.Name),
		WaitForTGStates:             c.StringSlice(waitForTGStatesFlag.Name),
		UpdateCWAlarms:              c.StringSlice(updateCWAlarmsFlag.Name),
		UpdateCWAlarmsSet:           c.IsSet(updateCWAlarmsFlag.Name),
		DeleteAMI:                   c.Bool(deleteAMIFlag.Name),
		Force:                       c.Bool(forceFlag.Name),
		DoNotPauseOnMajorWarnings:   c.Bool(doNotPauseOnMajorWarningsFlag.Name),
	}, nil
}
