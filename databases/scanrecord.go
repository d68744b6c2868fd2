package databases

// go generate: mockery --name ScanRecordDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/truthlens/truthlens-api/models"
)

const scanRecordName = "scanRecords"

// ScanRecordDatabase contains the methods to use with the scanRecord database
type ScanRecordDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScanRecord, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, rec models.ScanRecord, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type scanRecordDatabase struct {
	db DatabaseHelper
}

// NewScanRecordDatabase initializes a new instance of scanRecord database with the provided db connection
func NewScanRecordDatabase(db DatabaseHelper) ScanRecordDatabase {
	return &scanRecordDatabase{
		db: db,
	}
}

func (c *scanRecordDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScanRecord, error) {
	var recs []models.ScanRecord
	cur, err := c.db.Collection(scanRecordName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&recs)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *scanRecordDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(scanRecordName).CountDocuments(ctx, filter, opts...)
}

func (c *scanRecordDatabase) InsertOne(ctx context.Context, rec models.ScanRecord, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(scanRecordName).InsertOne(ctx, rec, opts...)
}

func (c *scanRecordDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(scanRecordName).DeleteMany(ctx, filter, opts...)
}
