// Package mongo implements the storage-engine contract over the official
// MongoDB driver. It is the production engine; the core never sees BSON
// types, only neutral documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aretw0/silt/pkg/core"
)

// Dialer opens sessions against a MongoDB deployment.
type Dialer struct {
	uri string
}

// NewDialer creates a dialer for the given connection URI.
func NewDialer(uri string) *Dialer {
	return &Dialer{uri: uri}
}

// Dial connects, verifies the deployment with a ping, and returns a
// session bound to the named database.
func (d *Dialer) Dial(ctx context.Context, database string) (core.Session, error) {
	client, err := mongodrv.Connect(options.Client().ApplyURI(d.uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &session{
		client: client,
		db:     client.Database(database),
		closed: make(chan error, 1),
	}, nil
}

type session struct {
	client *mongodrv.Client
	db     *mongodrv.Database
	closed chan error
	once   sync.Once
}

func (s *session) Collection(name string) core.Collection {
	return &collection{col: s.db.Collection(name)}
}

func (s *session) Close(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		err = s.client.Disconnect(ctx)
		close(s.closed)
	})
	return err
}

func (s *session) Closed() <-chan error { return s.closed }

type collection struct {
	col *mongodrv.Collection
}

func (c *collection) Name() string { return c.col.Name() }

func (c *collection) InsertOne(ctx context.Context, doc core.Document) (core.InsertOneResult, error) {
	res, err := c.col.InsertOne(ctx, doc)
	if err != nil {
		return core.InsertOneResult{}, err
	}
	return core.InsertOneResult{InsertedID: idString(res.InsertedID)}, nil
}

func (c *collection) InsertMany(ctx context.Context, docs []core.Document) (core.InsertManyResult, error) {
	payload := make([]any, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}
	res, err := c.col.InsertMany(ctx, payload)
	if err != nil {
		return core.InsertManyResult{}, err
	}
	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = idString(id)
	}
	return core.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *collection) FindOne(ctx context.Context, filter core.Filter) (core.Document, error) {
	var raw bson.M
	err := c.col.FindOne(ctx, asFilter(filter)).Decode(&raw)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, core.ErrNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(raw), nil
}

func (c *collection) Find(ctx context.Context, filter core.Filter, opts core.FindOptions) ([]core.Document, error) {
	fo := options.Find()
	if len(opts.Projection) > 0 {
		proj := bson.D{}
		for _, f := range opts.Projection {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		fo.SetProjection(proj)
	}
	if len(opts.Sort) > 0 {
		sd := bson.D{}
		for _, s := range opts.Sort {
			order := 1
			if s.Desc {
				order = -1
			}
			sd = append(sd, bson.E{Key: s.Field, Value: order})
		}
		fo.SetSort(sd)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}

	cur, err := c.col.Find(ctx, asFilter(filter), fo)
	if err != nil {
		return nil, err
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	docs := make([]core.Document, len(raws))
	for i, raw := range raws {
		docs[i] = fromBSON(raw)
	}
	return docs, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	res, err := c.col.UpdateOne(ctx, asFilter(filter), update)
	if err != nil {
		return core.UpdateResult{}, err
	}
	return core.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	res, err := c.col.UpdateMany(ctx, asFilter(filter), update)
	if err != nil {
		return core.UpdateResult{}, err
	}
	return core.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter core.Filter, update core.Update) (core.Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := c.col.FindOneAndUpdate(ctx, asFilter(filter), update, opts).Decode(&raw)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, core.ErrNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(raw), nil
}

func (c *collection) DeleteOne(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	res, err := c.col.DeleteOne(ctx, asFilter(filter))
	if err != nil {
		return core.DeleteResult{}, err
	}
	return core.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	res, err := c.col.DeleteMany(ctx, asFilter(filter))
	if err != nil {
		return core.DeleteResult{}, err
	}
	return core.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter core.Filter) (int64, error) {
	return c.col.CountDocuments(ctx, asFilter(filter))
}

func (c *collection) Distinct(ctx context.Context, field string, filter core.Filter) ([]any, error) {
	res := c.col.Distinct(ctx, field, asFilter(filter))
	if err := res.Err(); err != nil {
		return nil, err
	}
	var vals []any
	if err := res.Decode(&vals); err != nil {
		return nil, err
	}
	for i, v := range vals {
		vals[i] = fromBSONValue(v)
	}
	return vals, nil
}

// asFilter guards against nil filters, which the driver rejects.
func asFilter(filter core.Filter) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case bson.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprint(v)
	}
}

// fromBSON converts decoded BSON into a neutral document: datetimes
// become time.Time, nested documents become plain maps.
func fromBSON(m bson.M) core.Document {
	doc := make(core.Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.DateTime:
		return t.Time().UTC()
	case bson.ObjectID:
		return t.Hex()
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSONValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	default:
		return v
	}
}
