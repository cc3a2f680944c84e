package store

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

const (
	primaryKeyAttr = "instance_id"
	payloadAttr    = "job_record_json"
)

// DynamoDBDriver is the production Driver (spec §6: "--dynamodb-tablename
// NAME (default ec2-spot-converter-state-table)"). The whole record is
// stored as a single JSON-blob attribute (spec §6 "Value is the
// JSON-serialised job record"), keyed by instance_id; no secondary
// indexes, no multi-record transactions — matching §4.2 exactly.
type DynamoDBDriver struct {
	svc   *dynamodb.DynamoDB
	table string
	log   cmn.Logger
}

// NewDynamoDBDriver builds the production store driver.
func NewDynamoDBDriver(sess *session.Session, table string, log cmn.Logger) *DynamoDBDriver {
	return &DynamoDBDriver{svc: dynamodb.New(sess), table: table, log: log}
}

var _ Driver = (*DynamoDBDriver)(nil)

// EnsureTable idempotently creates the table; ResourceInUseException (the
// table already exists) is treated as success (spec §4.2, §6
// "--generate-dynamodb-table (idempotent; exits after creating)").
func (d *DynamoDBDriver) EnsureTable(ctx context.Context) error {
	_, err := d.svc.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String(primaryKeyAttr), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String(primaryKeyAttr), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeResourceInUseException {
			d.log.Debugf("dynamodb table %s already exists", d.table)
			return nil
		}
		return cmn.NewPersistenceFailure(err)
	}
	return nil
}

// Load performs a strongly-consistent GetItem (spec §4.2 "Consistency
// requirement").
func (d *DynamoDBDriver) Load(ctx context.Context, instanceID string) (*record.Job, error) {
	out, err := d.svc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			primaryKeyAttr: {S: aws.String(instanceID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, cmn.NewPersistenceFailure(err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	payload, ok := out.Item[payloadAttr]
	if !ok || payload.S == nil {
		return nil, ErrNotFound
	}
	job := &record.Job{}
	if err := cmn.Unmarshal([]byte(*payload.S), job); err != nil {
		return nil, cmn.NewPersistenceFailure(err)
	}
	return job, nil
}

// Save overwrites the item unconditionally (no multi-record transactions
// are required, spec §4.2).
func (d *DynamoDBDriver) Save(ctx context.Context, job *record.Job) error {
	payload := string(cmn.MustMarshal(job))
	_, err := d.svc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			primaryKeyAttr: {S: aws.String(job.InstanceID)},
			payloadAttr:    {S: aws.String(payload)},
		},
	})
	if err != nil {
		return cmn.NewPersistenceFailure(err)
	}
	return nil
}
