// Flags for the ec2-spot-converter command, named after spec.md §6's
// canonical external interface.
package main

import "github.com/urfave/cli"

const defaultDynamoDBTableName = "ec2-spot-converter-state-table"

var (
	instanceIDFlag = cli.StringFlag{Name: "instance-id", Usage: "id of the instance to convert (required)"}

	targetBillingModelFlag = cli.StringFlag{Name: "target-billing-model", Value: "spot", Usage: "one of {spot, on-demand}"}
	targetInstanceTypeFlag = cli.StringFlag{Name: "target-instance-type", Usage: "replacement instance type, defaults to the original's"}
	cpuOptionsFlag         = cli.StringFlag{Name: "cpu-options", Usage: `"ignore", or JSON {"CoreCount":N,"ThreadsPerCore":M}`}
	maxSpotPriceFlag       = cli.StringFlag{Name: "max-spot-price", Usage: "maximum hourly spot price"}
	volumeKmsKeyIDFlag     = cli.StringFlag{Name: "volume-kms-key-id", Usage: "KMS key id used to encrypt the root volume"}

	ignoreUserDataFlag           = cli.BoolFlag{Name: "ignore-userdata"}
	ignoreHibernationOptionsFlag = cli.BoolFlag{Name: "ignore-hibernation-options"}

	stopInstanceFlag               = cli.BoolFlag{Name: "stop-instance"}
	rebootIfNeededFlag             = cli.BoolFlag{Name: "reboot-if-needed"}
	doNotRequireStoppedInstanceFlag = cli.BoolFlag{Name: "do-not-require-stopped-instance"}

	checkTargetGroupsFlag = cli.StringSliceFlag{Name: "check-targetgroups", Usage: "target-group ARNs to reconcile; passed with none means all target groups"}
	waitForTGStatesFlag   = cli.StringSliceFlag{Name: "wait-for-tg-states", Usage: "accepted health states; empty means {unused, healthy}"}
	updateCWAlarmsFlag    = cli.StringSliceFlag{Name: "update-cw-alarms", Usage: "alarm name prefixes to repoint; '*' or passed with none means all alarms"}

	deleteAMIFlag = cli.BoolFlag{Name: "delete-ami"}

	dynamodbTableNameFlag     = cli.StringFlag{Name: "dynamodb-tablename", Value: defaultDynamoDBTableName}
	generateDynamoDBTableFlag = cli.BoolFlag{Name: "generate-dynamodb-table", Usage: "create the state table and exit"}

	forceFlag                     = cli.BoolFlag{Name: "force"}
	doNotPauseOnMajorWarningsFlag = cli.BoolFlag{Name: "do-not-pause-on-major-warnings"}
	resetStepFlag                 = cli.StringFlag{Name: "reset-step", Usage: "rewind last_successful_step_name to just before this step"}

	debugFlag = cli.BoolFlag{Name: "debug"}
)

var convertFlags = []cli.Flag{
	instanceIDFlag,
	targetBillingModelFlag,
	targetInstanceTypeFlag,
	cpuOptionsFlag,
	maxSpotPriceFlag,
	volumeKmsKeyIDFlag,
	ignoreUserDataFlag,
	ignoreHibernationOptionsFlag,
	stopInstanceFlag,
	rebootIfNeededFlag,
	doNotRequireStoppedInstanceFlag,
	checkTargetGroupsFlag,
	waitForTGStatesFlag,
	updateCWAlarmsFlag,
	deleteAMIFlag,
	dynamodbTableNameFlag,
	generateDynamoDBTableFlag,
	forceFlag,
	doNotPauseOnMajorWarningsFlag,
	resetStepFlag,
	debugFlag,
}
