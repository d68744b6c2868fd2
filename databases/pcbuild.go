package databases

// go generate: mockery --name PCComponentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/truthlens/truthlens-api/models"
)

const pcComponentName = "pcComponents"

// PCComponentDatabase contains the methods to use with the pcComponent database
type PCComponentDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PCComponent, error)
	InsertOne(ctx context.Context, comp models.PCComponent, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type pcComponentDatabase struct {
	db DatabaseHelper
}

// NewPCComponentDatabase initializes a new instance of pcComponent database with the provided db connection
func NewPCComponentDatabase(db DatabaseHelper) PCComponentDatabase {
	return &pcComponentDatabase{
		db: db,
	}
}

func (c *pcComponentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PCComponent, error) {
	var comps []models.PCComponent
	cur, err := c.db.Collection(pcComponentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&comps)
	if err != nil {
		return nil, err
	}
	return comps, nil
}

func (c *pcComponentDatabase) InsertOne(ctx context.Context, comp models.PCComponent, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(pcComponentName).InsertOne(ctx, comp, opts...)
}

func (c *pcComponentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(pcComponentName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *pcComponentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(pcComponentName).DeleteOne(ctx, filter, opts...)
}
