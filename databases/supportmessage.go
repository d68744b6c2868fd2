package databases

// go generate: mockery --name SupportMessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/truthlens/truthlens-api/models"
)

const supportMessageName = "supportMessages"

// SupportMessageDatabase contains the methods to use with the supportMessage database
type SupportMessageDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.SupportMessage, error)
	InsertOne(ctx context.Context, msg models.SupportMessage, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type supportMessageDatabase struct {
	db DatabaseHelper
}

// NewSupportMessageDatabase initializes a new instance of supportMessage database with the provided db connection
func NewSupportMessageDatabase(db DatabaseHelper) SupportMessageDatabase {
	return &supportMessageDatabase{
		db: db,
	}
}

func (c *supportMessageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.SupportMessage, error) {
	var msgs []models.SupportMessage
	cur, err := c.db.Collection(supportMessageName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&msgs)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *supportMessageDatabase) InsertOne(ctx context.Context, msg models.SupportMessage, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(supportMessageName).InsertOne(ctx, msg, opts...)
}
