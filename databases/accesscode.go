package databases

// go generate: mockery --name AccessCodeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/truthlens/truthlens-api/models"
)

const accessCodeName = "accessCodes"

// AccessCodeDatabase contains the methods to use with the accessCode database
type AccessCodeDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.AccessCode, error)
	FindActiveByCode(ctx context.Context, code string) (*models.AccessCode, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AccessCode, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, accessCode models.AccessCode, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID, usageLimit int) (bool, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type accessCodeDatabase struct {
	db DatabaseHelper
}

// NewAccessCodeDatabase initializes a new instance of accessCode database with the provided db connection
func NewAccessCodeDatabase(db DatabaseHelper) AccessCodeDatabase {
	return &accessCodeDatabase{
		db: db,
	}
}

func (c *accessCodeDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.AccessCode, error) {
	accessCode := &models.AccessCode{}
	err := c.db.Collection(accessCodeName).FindOne(ctx, filter, opts...).Decode(&accessCode)
	if err != nil {
		return nil, err
	}
	return accessCode, nil
}

// FindActiveByCode looks up a single active code by its canonicalized code
// string. Every call is a fresh read; redemption must observe the latest
// usage count.
func (c *accessCodeDatabase) FindActiveByCode(ctx context.Context, code string) (*models.AccessCode, error) {
	return c.FindOne(ctx, bson.M{"code": code, "active": true})
}

func (c *accessCodeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AccessCode, error) {
	var accessCodes []models.AccessCode
	cur, err := c.db.Collection(accessCodeName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&accessCodes)
	if err != nil {
		return nil, err
	}
	return accessCodes, nil
}

func (c *accessCodeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(accessCodeName).CountDocuments(ctx, filter, opts...)
}

func (c *accessCodeDatabase) InsertOne(ctx context.Context, accessCode models.AccessCode, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(accessCodeName).InsertOne(ctx, accessCode, opts...)
}

func (c *accessCodeDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(accessCodeName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *accessCodeDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(accessCodeName).UpdateMany(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// IncrementUsage atomically raises usedCount by one. For limited codes the
// filter requires usedCount < usageLimit so concurrent redemptions can never
// push a code past its limit; the boolean reports whether the increment won.
func (c *accessCodeDatabase) IncrementUsage(ctx context.Context, id primitive.ObjectID, usageLimit int) (bool, error) {
	filter := bson.M{"_id": id}
	if usageLimit > 0 {
		filter["usedCount"] = bson.M{"$lt": usageLimit}
	}
	res, err := c.db.Collection(accessCodeName).UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (c *accessCodeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(accessCodeName).DeleteOne(ctx, filter, opts...)
}
