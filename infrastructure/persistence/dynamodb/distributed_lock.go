package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	pkgerrors "storefront-backend/pkg/errors"
)

// DistributedLock implements the hydration lock with DynamoDB conditional
// writes. A lock is one item in the table; an expired lease can be taken
// over.
type DistributedLock struct {
	client    Client
	tableName string
	owner     string
	lease     time.Duration
	wait      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

var _ ports.HydrationLocker = (*DistributedLock)(nil)

// LockRecord represents a lock record in DynamoDB
type LockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#<name>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lock identifier
	Owner      string `dynamodbav:"Owner"`      // Lock owner identifier
	AcquiredAt string `dynamodbav:"AcquiredAt"` // RFC3339 timestamp
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`  // Unix milliseconds
	TTL        int64  `dynamodbav:"TTL"`        // Unix timestamp for DynamoDB TTL
}

// NewDistributedLock creates a lock provider. lease bounds how long a
// crashed holder can block others; wait bounds Acquire.
func NewDistributedLock(client Client, tableName string, lease, wait time.Duration, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		owner:     uuid.NewString(),
		lease:     lease,
		wait:      wait,
		now:       time.Now,
		logger:    logger,
	}
}

// Acquire retries the conditional put with backoff until it succeeds or the
// wait elapses.
func (dl *DistributedLock) Acquire(ctx context.Context, name string) (ports.ReleaseFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, dl.wait)
	defer cancel()

	retryInterval := 50 * time.Millisecond
	for {
		release, err := dl.tryAcquire(ctx, name)
		if err == nil {
			return release, nil
		}
		if !isConditionFailed(err) {
			return nil, pkgerrors.NewCacheUnavailableError("lock "+name, err)
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.NewCacheUnavailableError("lock "+name,
				fmt.Errorf("timeout acquiring lock for resource: %s", name))
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DistributedLock) tryAcquire(ctx context.Context, name string) (ports.ReleaseFunc, error) {
	lockID := uuid.NewString()
	now := dl.now()
	expiresAt := now.Add(dl.lease)

	record := LockRecord{
		PK:         "LOCK#" + name,
		SK:         "LOCK",
		LockID:     lockID,
		Owner:      dl.owner,
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Unix(),
	}

	_, err := dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(dl.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: record.PK},
			"SK":         &types.AttributeValueMemberS{Value: record.SK},
			"LockID":     &types.AttributeValueMemberS{Value: record.LockID},
			"Owner":      &types.AttributeValueMemberS{Value: record.Owner},
			"AcquiredAt": &types.AttributeValueMemberS{Value: record.AcquiredAt},
			"ExpiresAt":  &types.AttributeValueMemberN{Value: strconv.FormatInt(record.ExpiresAt, 10)},
			"TTL":        &types.AttributeValueMemberN{Value: strconv.FormatInt(record.TTL, 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			dl.logger.Debug("lock already held", zap.String("resource", name))
		}
		return nil, err
	}

	dl.logger.Debug("lock acquired",
		zap.String("resource", name),
		zap.String("lockID", lockID),
		zap.Duration("lease", dl.lease),
	)
	return func(ctx context.Context) error {
		return dl.release(ctx, name, lockID)
	}, nil
}

func (dl *DistributedLock) release(ctx context.Context, name, lockID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + name},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: dl.owner},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			dl.logger.Warn("lock already released or taken over", zap.String("resource", name))
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
