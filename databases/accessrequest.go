package databases

// go generate: mockery --name AccessRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/truthlens/truthlens-api/models"
)

const accessRequestName = "accessRequests"

// AccessRequestDatabase contains the methods to use with the accessRequest database
type AccessRequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.AccessRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AccessRequest, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, req models.AccessRequest, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type accessRequestDatabase struct {
	db DatabaseHelper
}

// NewAccessRequestDatabase initializes a new instance of accessRequest database with the provided db connection
func NewAccessRequestDatabase(db DatabaseHelper) AccessRequestDatabase {
	return &accessRequestDatabase{
		db: db,
	}
}

func (c *accessRequestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.AccessRequest, error) {
	req := &models.AccessRequest{}
	err := c.db.Collection(accessRequestName).FindOne(ctx, filter, opts...).Decode(&req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (c *accessRequestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AccessRequest, error) {
	var reqs []models.AccessRequest
	cur, err := c.db.Collection(accessRequestName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&reqs)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (c *accessRequestDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(accessRequestName).CountDocuments(ctx, filter, opts...)
}

func (c *accessRequestDatabase) InsertOne(ctx context.Context, req models.AccessRequest, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(accessRequestName).InsertOne(ctx, req, opts...)
}

func (c *accessRequestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(accessRequestName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *accessRequestDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(accessRequestName).DeleteMany(ctx, filter, opts...)
}
