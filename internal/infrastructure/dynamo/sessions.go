package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tourist-verify-api/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the verification
// sessions table. Status transitions are conditional writes so concurrent
// confirmations (webhook + polling) cannot double-fire.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.VerificationSession) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.VerificationSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.VerificationSession
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPendingByPhone returns all pending sessions for a phone number via the
// phone GSI, newest first. Inbound-message confirmation matches the code
// against every one of them, so a code from an older still-valid send works.
func (r *SessionRepo) GetPendingByPhone(ctx context.Context, phone string) ([]domain.VerificationSession, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("phone-created_at-index"),
		KeyConditionExpression: aws.String("phone = :p"),
		FilterExpression:       aws.String("#s = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":       &types.AttributeValueMemberS{Value: phone},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPending},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no pending session for phone: %w", domain.ErrNotFound)
	}
	var sessions []domain.VerificationSession
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetLatestPendingByPhone returns the newest pending session for a phone
// number, used when a confirm request carries no session id.
func (r *SessionRepo) GetLatestPendingByPhone(ctx context.Context, phone string) (*domain.VerificationSession, error) {
	sessions, err := r.GetPendingByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// MarkVerified transitions pending -> verified. Returns ErrConflict when the
// session is no longer pending, so callers can re-read and handle the
// already-verified idempotent path.
func (r *SessionRepo) MarkVerified(ctx context.Context, sessionID string, verifiedAt time.Time) error {
	return r.transition(ctx, sessionID, domain.StatusVerified, map[string]interface{}{
		fieldVerifiedAt: verifiedAt.UTC().Format(time.RFC3339),
	})
}

// MarkExpired transitions pending -> expired. ErrConflict when already
// verified or expired.
func (r *SessionRepo) MarkExpired(ctx context.Context, sessionID string) error {
	return r.transition(ctx, sessionID, domain.StatusExpired, nil)
}

func (r *SessionRepo) transition(ctx context.Context, sessionID, newStatus string, extra map[string]interface{}) error {
	updates := map[string]interface{}{fieldStatus: newStatus}
	for k, v := range extra {
		updates[k] = v
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#cond"] = fieldStatus
	ue.Values[":pending"] = &types.AttributeValueMemberS{Value: domain.StatusPending}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("session_id", sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#cond = :pending"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("session not pending: %w", domain.ErrConflict)
	}
	return err
}

// IncrementAttempts bumps the failed-confirm counter and returns the new value.
func (r *SessionRepo) IncrementAttempts(ctx context.Context, sessionID string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("session_id", sessionID),
		UpdateExpression: aws.String("ADD #a :one"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldAttempts,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	var attempts struct {
		Attempts int `dynamodbav:"attempts"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &attempts); err != nil {
		return 0, err
	}
	return attempts.Attempts, nil
}

// Delete removes a session. Used to roll back creation when delivery fails.
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	return err
}

// ScanPage returns a page of sessions for the admin surface.
// cursor is a base64-encoded session_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *SessionRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.VerificationSession, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		sessionID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("session_id", sessionID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var sessions []domain.VerificationSession
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["session_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return sessions, nextCursor, nil
}

func encodeCursor(sessionID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sessionID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
