// Package ddb implements the document catalog on a single DynamoDB table.
//
// Every document lives under PK = collection and SK = document id. Ids are
// ULIDs, so a reverse query on a partition walks documents newest first.
package ddb

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// API is the subset of the DynamoDB client the repo uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Repo wraps a DynamoDB client and table name for catalog operations.
type Repo struct {
	DB    API
	Table string
	Now   func() time.Time // defaults to time.Now
}

var _ ports.Catalog = (*Repo)(nil)

const (
	attrPK      = "PK"
	attrSK      = "SK"
	attrOrder   = "order"
	attrUpdated = "updatedAt"
)

// Create inserts a new document, ensuring no document with the same id exists.
func (r *Repo) Create(ctx context.Context, collection, id string, doc any) error {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	for k, v := range MakeKeys(collection, id) {
		item[k] = v
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s/%s: %w", collection, id, ports.ErrExists)
	}
	return err
}

// Get loads a single document into out.
func (r *Repo) Get(ctx context.Context, collection, id string, out any) error {
	res, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.Table,
		Key:       MakeKeys(collection, id),
	})
	if err != nil {
		return err
	}
	if len(res.Item) == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ports.ErrNotFound)
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// Update SETs each field on the document. UpdateItem upserts, which is what
// the singleton settings document relies on.
func (r *Repo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var upd expression.UpdateBuilder
	for _, k := range names {
		upd = upd.Set(expression.Name(k), expression.Value(fields[k]))
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return fmt.Errorf("build update %s/%s: %w", collection, id, err)
	}
	_, err = r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &r.Table,
		Key:                       MakeKeys(collection, id),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	_, err := r.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.Table,
		Key:       MakeKeys(collection, id),
	})
	return err
}

// List reads a whole collection partition.
func (r *Repo) List(ctx context.Context, collection string, out any) error {
	p := dynamodb.NewQueryPaginator(r.DB, r.partitionQuery(collection))
	var items []map[string]types.AttributeValue
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query %s: %w", collection, err)
		}
		items = append(items, page.Items...)
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// Page reads one page of a collection newest first.
func (r *Repo) Page(ctx context.Context, collection string, limit int, cursor string, out any) (string, error) {
	in := r.partitionQuery(collection)
	in.ScanIndexForward = aws.Bool(false)
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	if cursor != "" {
		after, err := decodeCursor(cursor)
		if err != nil {
			return "", err
		}
		in.ExclusiveStartKey = MakeKeys(collection, after)
	}

	res, err := r.DB.Query(ctx, in)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", collection, err)
	}
	if err := attributevalue.UnmarshalListOfMaps(res.Items, out); err != nil {
		return "", err
	}

	var next string
	if sk, ok := res.LastEvaluatedKey[attrSK].(*types.AttributeValueMemberS); ok {
		next = encodeCursor(sk.Value)
	}
	return next, nil
}

// Reorder writes every rank change in one transaction. Each write is
// conditional on the current order so a concurrent editor cannot leave two
// documents on the same rank.
func (r *Repo) Reorder(ctx context.Context, collection string, changes []ports.RankChange) error {
	if len(changes) == 0 {
		return nil
	}
	now := r.now().UnixMilli()
	items := make([]types.TransactWriteItem, 0, len(changes))
	for _, c := range changes {
		cond := expression.Name(attrOrder).Equal(expression.Value(c.From))
		if c.From == 0 {
			// legacy documents may have no order attribute at all
			cond = expression.Or(cond, expression.Name(attrOrder).AttributeNotExists())
		}
		upd := expression.Set(expression.Name(attrOrder), expression.Value(c.To)).
			Set(expression.Name(attrUpdated), expression.Value(now))
		expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("build reorder %s/%s: %w", collection, c.ID, err)
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:                 &r.Table,
				Key:                       MakeKeys(collection, c.ID),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		})
	}

	_, err := r.DB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return fmt.Errorf("reorder %s: %w", collection, ports.ErrConflict)
			}
		}
	}
	return err
}

func (r *Repo) partitionQuery(collection string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              &r.Table,
		KeyConditionExpression: awsStr("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: collection},
		},
	}
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// awsStr is a helper to get a pointer to a string literal.
func awsStr(s string) *string { return &s }

// MakeKeys constructs the partition key (PK) and sort key (SK) for a document.
func MakeKeys(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: collection},
		attrSK: &types.AttributeValueMemberS{Value: id},
	}
}

func encodeCursor(sk string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sk))
}

func decodeCursor(c string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(c)
	if err != nil || len(b) == 0 {
		return "", validate.New("cursor", "invalid page cursor")
	}
	return string(b), nil
}
