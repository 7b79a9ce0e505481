package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tourist-verify-api/internal/domain"
)

// TouristRepo provides typed DynamoDB operations for the tourist profiles
// table, keyed by phone number.
type TouristRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTouristRepo(client *dynamodb.Client, tableName string) *TouristRepo {
	return &TouristRepo{client: client, tableName: tableName}
}

func (r *TouristRepo) Get(ctx context.Context, phone string) (*domain.TouristProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tourist profile not found: %w", domain.ErrNotFound)
	}
	var p domain.TouristProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertVerified marks a phone as verified in a single UpdateItem. Identity
// and default fields use if_not_exists so a pre-existing profile keeps its
// values while a missing one is created fully populated, avoiding a read-then-insert
// race. touristID and firstName only apply on first creation.
func (r *TouristRepo) UpsertVerified(ctx context.Context, phone, touristID, firstName string, now time.Time) (*domain.TouristProfile, error) {
	prefs, err := attributevalue.Marshal(domain.DefaultPreferences())
	if err != nil {
		return nil, fmt.Errorf("marshal default preferences: %w", err)
	}
	nowStr := now.UTC().Format(time.RFC3339)

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
		UpdateExpression: aws.String(
			"SET phone_verified = :true, last_active = :now, " +
				"tourist_id = if_not_exists(tourist_id, :tid), " +
				"first_name = if_not_exists(first_name, :fname), " +
				"preferences = if_not_exists(preferences, :prefs), " +
				"bookings_count = if_not_exists(bookings_count, :zero), " +
				"saved_artisans_count = if_not_exists(saved_artisans_count, :zero), " +
				"whatsapp_opt_in = if_not_exists(whatsapp_opt_in, :true), " +
				"marketing_opt_in = if_not_exists(marketing_opt_in, :false), " +
				"first_verified_at = if_not_exists(first_verified_at, :now), " +
				"created_at = if_not_exists(created_at, :now)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   &types.AttributeValueMemberS{Value: nowStr},
			":tid":   &types.AttributeValueMemberS{Value: touristID},
			":fname": &types.AttributeValueMemberS{Value: firstName},
			":prefs": prefs,
			":zero":  &types.AttributeValueMemberN{Value: "0"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert tourist profile: %w", err)
	}
	var p domain.TouristProfile
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TouchLastActive refreshes last_active without touching anything else.
func (r *TouristRepo) TouchLastActive(ctx context.Context, phone string, now time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldLastActive: now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("phone", phone),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
