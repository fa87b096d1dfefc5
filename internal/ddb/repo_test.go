package ddb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// fakeDB records the last input of each call and returns canned outputs.
type fakeDB struct {
	put      *dynamodb.PutItemInput
	update   *dynamodb.UpdateItemInput
	queries  []*dynamodb.QueryInput
	transact *dynamodb.TransactWriteItemsInput

	putErr      error
	getItem     map[string]types.AttributeValue
	pages       []*dynamodb.QueryOutput
	transactErr error
}

func (f *fakeDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.put = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDB) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.update = in
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDB) DeleteItem(_ context.Context, _ *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	out := f.pages[0]
	f.pages = f.pages[1:]
	return out, nil
}

func (f *fakeDB) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transact = in
	return &dynamodb.TransactWriteItemsOutput{}, f.transactErr
}

func str(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

func TestCreateAddsKeysAndCondition(t *testing.T) {
	db := &fakeDB{}
	r := &Repo{DB: db, Table: "studio"}
	require.NoError(t, r.Create(context.Background(), models.CollectionImages, "01A", models.AssetRecord{ID: "01A", Name: "a.jpg"}))

	assert.Equal(t, "studio", aws.ToString(db.put.TableName))
	assert.Equal(t, str(models.CollectionImages), db.put.Item["PK"])
	assert.Equal(t, str("01A"), db.put.Item["SK"])
	assert.Equal(t, str("a.jpg"), db.put.Item["name"])
	assert.Contains(t, aws.ToString(db.put.ConditionExpression), "attribute_not_exists")
}

func TestCreateExisting(t *testing.T) {
	db := &fakeDB{putErr: &types.ConditionalCheckFailedException{}}
	r := &Repo{DB: db, Table: "studio"}
	err := r.Create(context.Background(), models.CollectionImages, "01A", models.AssetRecord{ID: "01A"})
	assert.ErrorIs(t, err, ports.ErrExists)
}

func TestGetMissing(t *testing.T) {
	r := &Repo{DB: &fakeDB{}, Table: "studio"}
	var out models.AssetRecord
	assert.ErrorIs(t, r.Get(context.Background(), models.CollectionImages, "nope", &out), ports.ErrNotFound)
}

func TestGetDecodes(t *testing.T) {
	db := &fakeDB{getItem: map[string]types.AttributeValue{
		"PK": str("technicians"), "SK": str("t1"),
		"id": str("t1"), "name": str("Reina"), "order": &types.AttributeValueMemberN{Value: "2.5"},
	}}
	r := &Repo{DB: db, Table: "studio"}
	var out models.Technician
	require.NoError(t, r.Get(context.Background(), models.CollectionTechnicians, "t1", &out))
	assert.Equal(t, "Reina", out.Name)
	assert.Equal(t, 2.5, out.Order)
}

func TestUpdateSetsEveryField(t *testing.T) {
	db := &fakeDB{}
	r := &Repo{DB: db, Table: "studio"}
	require.NoError(t, r.Update(context.Background(), models.CollectionSite, models.SiteSettingsID, map[string]any{
		"heroHeadline": "Hi",
		"updatedAt":    int64(5),
	}))
	expr := aws.ToString(db.update.UpdateExpression)
	assert.True(t, strings.HasPrefix(expr, "SET "), expr)
	assert.Len(t, db.update.ExpressionAttributeNames, 2)
	assert.Len(t, db.update.ExpressionAttributeValues, 2)

	db.update = nil
	require.NoError(t, r.Update(context.Background(), models.CollectionSite, models.SiteSettingsID, nil))
	assert.Nil(t, db.update, "empty update is skipped")
}

func TestListFollowsPages(t *testing.T) {
	db := &fakeDB{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{{"id": str("a")}},
			LastEvaluatedKey: map[string]types.AttributeValue{"PK": str("images"), "SK": str("a")},
		},
		{Items: []map[string]types.AttributeValue{{"id": str("b")}}},
	}}
	r := &Repo{DB: db, Table: "studio"}
	var out []models.AssetRecord
	require.NoError(t, r.List(context.Background(), models.CollectionImages, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].ID)
	assert.Len(t, db.queries, 2)
}

func TestPageCursorRoundTrip(t *testing.T) {
	db := &fakeDB{pages: []*dynamodb.QueryOutput{{
		Items:            []map[string]types.AttributeValue{{"id": str("02")}},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": str("images"), "SK": str("02")},
	}}}
	r := &Repo{DB: db, Table: "studio"}
	var out []models.AssetRecord
	next, err := r.Page(context.Background(), models.CollectionImages, 24, "", &out)
	require.NoError(t, err)
	require.NotEmpty(t, next)
	assert.False(t, aws.ToBool(db.queries[0].ScanIndexForward), "newest first")
	assert.Equal(t, int32(24), aws.ToInt32(db.queries[0].Limit))

	_, err = r.Page(context.Background(), models.CollectionImages, 24, next, &out)
	require.NoError(t, err)
	assert.Equal(t, str("02"), db.queries[1].ExclusiveStartKey["SK"])

	_, err = r.Page(context.Background(), models.CollectionImages, 24, "!!", &out)
	assert.True(t, validate.IsValidation(err))
}

func TestReorderIsOneConditionalTransaction(t *testing.T) {
	db := &fakeDB{}
	r := &Repo{DB: db, Table: "studio", Now: func() time.Time { return time.UnixMilli(42) }}
	require.NoError(t, r.Reorder(context.Background(), models.CollectionSignatureLooks, []ports.RankChange{
		{ID: "a", From: 1, To: 2},
		{ID: "b", From: 2, To: 1},
	}))
	require.Len(t, db.transact.TransactItems, 2)
	for _, it := range db.transact.TransactItems {
		require.NotNil(t, it.Update)
		assert.NotEmpty(t, aws.ToString(it.Update.ConditionExpression))
	}
}

func TestReorderConflict(t *testing.T) {
	db := &fakeDB{transactErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	}}
	r := &Repo{DB: db, Table: "studio"}
	err := r.Reorder(context.Background(), "signatureLooks", []ports.RankChange{{ID: "a", From: 1, To: 2}, {ID: "b", From: 2, To: 1}})
	assert.ErrorIs(t, err, ports.ErrConflict)

	db.transactErr = errors.New("boom")
	err = r.Reorder(context.Background(), "signatureLooks", []ports.RankChange{{ID: "a", From: 1, To: 2}})
	assert.False(t, errors.Is(err, ports.ErrConflict))
}
