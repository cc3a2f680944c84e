package cloud

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
)

// AlarmsMatchingPrefixes enumerates alarms matching any of the given name
// prefixes, or all alarms when prefixes is empty or contains "*"
// (spec §4.6 "CloudWatch alarm reconciliation").
func (a *awsAdapter) AlarmsMatchingPrefixes(ctx context.Context, prefixes []string) ([]*cloudwatch.MetricAlarm, error) {
	wildcard := len(prefixes) == 0
	for _, p := range prefixes {
		if p == "*" {
			wildcard = true
		}
	}

	var alarms []*cloudwatch.MetricAlarm
	err := withRetry(ctx, func() error {
		alarms = alarms[:0]
		return a.cw.DescribeAlarmsPagesWithContext(ctx, &cloudwatch.DescribeAlarmsInput{}, func(page *cloudwatch.DescribeAlarmsOutput, lastPage bool) bool {
			for _, al := range page.MetricAlarms {
				name := aws.StringValue(al.AlarmName)
				if wildcard || matchesAnyPrefix(name, prefixes) {
					alarms = append(alarms, al)
				}
			}
			return true
		})
	})
	return alarms, err
}

func matchesAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// RepointAlarmInstanceID replaces the InstanceId dimension value of alarm
// from "from" to "to" and re-submits it via PutMetricAlarm, preserving
// every other field of the alarm definition.
func (a *awsAdapter) RepointAlarmInstanceID(ctx context.Context, alarm *cloudwatch.MetricAlarm, from, to string) error {
	dims := make([]*cloudwatch.Dimension, len(alarm.Dimensions))
	changed := false
	for i, d := range alarm.Dimensions {
		dims[i] = d
		if aws.StringValue(d.Name) == "InstanceId" && aws.StringValue(d.Value) == from {
			dims[i] = &cloudwatch.Dimension{Name: aws.String("InstanceId"), Value: aws.String(to)}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	input := &cloudwatch.PutMetricAlarmInput{
		AlarmName:                          alarm.AlarmName,
		AlarmDescription:                   alarm.AlarmDescription,
		ActionsEnabled:                     alarm.ActionsEnabled,
		OKActions:                          alarm.OKActions,
		AlarmActions:                       alarm.AlarmActions,
		InsufficientDataActions:            alarm.InsufficientDataActions,
		MetricName:                         alarm.MetricName,
		Namespace:                          alarm.Namespace,
		Statistic:                          alarm.Statistic,
		Dimensions:                         dims,
		Period:                             alarm.Period,
		Unit:                               alarm.Unit,
		EvaluationPeriods:                  alarm.EvaluationPeriods,
		DatapointsToAlarm:                  alarm.DatapointsToAlarm,
		Threshold:                          alarm.Threshold,
		ComparisonOperator:                 alarm.ComparisonOperator,
		TreatMissingData:                   alarm.TreatMissingData,
		EvaluateLowSampleCountPercentile:   alarm.EvaluateLowSampleCountPercentile,
	}
	return withRetry(ctx, func() error {
		_, err := a.cw.PutMetricAlarmWithContext(ctx, input)
		return err
	})
}
