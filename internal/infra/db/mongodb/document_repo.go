package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect abre el cliente y comprueba que el primario responde.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return client, nil
}

// DocumentRepo implementa sharedDomain.Repository sobre una colección. El
// documento guardado es la forma JSON de la entidad más _id y _createdAt.
type DocumentRepo[T any, P sharedDomain.EntityPtr[T]] struct {
	client     *mongo.Client
	coll       *mongo.Collection
	outboxColl *mongo.Collection
}

func NewDocumentRepo[T any, P sharedDomain.EntityPtr[T]](client *mongo.Client, dbName, collection string) *DocumentRepo[T, P] {
	db := client.Database(dbName)
	return &DocumentRepo[T, P]{
		client:     client,
		coll:       db.Collection(collection),
		outboxColl: db.Collection(outboxCollection),
	}
}

// --- CRUD Transaccional ---

func (r *DocumentRepo[T, P]) Create(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	doc, err := toDocument[T, P](e)
	if err != nil {
		return err
	}

	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sessCtx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return sharedDomain.ErrAlreadyExists
			}
			return err
		}
		_, err := r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt))
		return err
	})
}

func (r *DocumentRepo[T, P]) Update(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	doc, err := toDocument[T, P](e)
	if err != nil {
		return err
	}

	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := r.rawByID(sessCtx, doc[idKey].(string))
		if err != nil {
			return err
		}
		// _createdAt fija la posición de inserción y no cambia.
		doc[createdKey] = current[createdKey]

		res, err := r.coll.ReplaceOne(sessCtx, bson.M{idKey: doc[idKey]}, doc)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return sharedDomain.ErrNotFound
		}
		_, err = r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt))
		return err
	})
}

func (r *DocumentRepo[T, P]) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.coll.DeleteOne(sessCtx, bson.M{idKey: id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return sharedDomain.ErrNotFound
		}
		_, err = r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt))
		return err
	})
}

// --- Lectura ---

func (r *DocumentRepo[T, P]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	raw, err := r.rawByID(ctx, id.String())
	if err != nil {
		return nil, err
	}
	return fromDocument[T](raw)
}

func (r *DocumentRepo[T, P]) Find(ctx context.Context, q filter.Query) ([]*T, error) {
	where, err := toMongoFilter(q.Where)
	if err != nil {
		return nil, err
	}
	sort, err := toMongoSort(q.Order)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sort)
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Take > 0 {
		opts.SetLimit(int64(q.Take))
	}

	cursor, err := r.coll.Find(ctx, where, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		e, err := fromDocument[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cursor.Err()
}

func (r *DocumentRepo[T, P]) rawByID(ctx context.Context, id string) (bson.M, error) {
	var raw bson.M
	err := r.coll.FindOne(ctx, bson.M{idKey: id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sharedDomain.ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (r *DocumentRepo[T, P]) withTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	// La transacción asegura que documento y evento se escriban juntos.
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// --- Helpers de Mapeo y Conversión ---

func toDocument[T any, P sharedDomain.EntityPtr[T]](e *T) (bson.M, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	var doc bson.M
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("entity must serialize to a JSON object: %w", err)
	}
	base := P(e).EntityBase()
	doc[idKey] = base.ID.String()
	doc[createdKey] = base.CreatedAt.UTC()
	return doc, nil
}

func fromDocument[T any](raw bson.M) (*T, error) {
	delete(raw, idKey)
	delete(raw, createdKey)
	data, err := json.Marshal(plain(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &e, nil
}

// plain convierte los tipos BSON decodificados en valores que encoding/json entiende.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
