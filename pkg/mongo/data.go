package mongo

import (
	"context"
	"errors"
	"maps"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SaveResult summarizes a SaveData call.
type SaveResult struct {
	InsertedCount int64
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	// IDs holds the _id of every document, in argument order. Documents saved
	// without an identifier get a generated ObjectID.
	IDs []any
}

// saveModel is the planned write for a single document.
type saveModel struct {
	id     any
	upsert bool
	doc    bson.M // insert body, or the $set body of an upsert
}

func (s saveModel) filter() bson.M {
	return bson.M{"_id": s.id}
}

func (s saveModel) update() bson.M {
	if len(s.doc) == 0 {
		return bson.M{"$setOnInsert": bson.M{"_id": s.id}}
	}
	return bson.M{"$set": s.doc}
}

func (s saveModel) writeModel() mongo.WriteModel {
	if s.upsert {
		return mongo.NewUpdateOneModel().
			SetFilter(s.filter()).
			SetUpdate(s.update()).
			SetUpsert(true)
	}
	return mongo.NewInsertOneModel().SetDocument(s.doc)
}

// hasID reports whether doc carries a usable identifier. Missing, nil, empty
// string and zero ObjectID values count as absent.
func hasID(doc bson.M) bool {
	id, ok := doc["_id"]
	if !ok || id == nil {
		return false
	}
	switch v := id.(type) {
	case string:
		return v != ""
	case bson.ObjectID:
		return !v.IsZero()
	}
	return true
}

// planSave turns docs into writes without touching the caller's maps.
func planSave(docs []bson.M) []saveModel {
	plan := make([]saveModel, 0, len(docs))
	for _, doc := range docs {
		body := maps.Clone(doc)
		if body == nil {
			body = bson.M{}
		}
		if hasID(doc) {
			delete(body, "_id")
			plan = append(plan, saveModel{id: doc["_id"], upsert: true, doc: body})
			continue
		}
		id := bson.NewObjectID()
		body["_id"] = id
		plan = append(plan, saveModel{id: id, doc: body})
	}
	return plan
}

func planIDs(plan []saveModel) []any {
	ids := make([]any, len(plan))
	for i, s := range plan {
		ids[i] = s.id
	}
	return ids
}

// SaveData writes docs to collection of the configured database. A document
// with an _id replaces the fields of the stored document with that _id, or is
// inserted when none exists. A document without one is inserted. Several
// documents are sent as one unordered bulk write.
func (m *Manager) SaveData(ctx context.Context, collection string, docs ...bson.M) (*SaveResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	coll := m.Collection(collection)
	if coll == nil {
		return nil, ErrNotConnected
	}

	plan := planSave(docs)
	res := &SaveResult{IDs: planIDs(plan)}

	if len(plan) == 1 {
		s := plan[0]
		if !s.upsert {
			if _, err := coll.InsertOne(ctx, s.doc); err != nil {
				return nil, errors.Join(ErrSaveFailed, err)
			}
			res.InsertedCount = 1
			return res, nil
		}

		ur, err := coll.UpdateOne(ctx, s.filter(), s.update(), options.UpdateOne().SetUpsert(true))
		if err != nil {
			return nil, errors.Join(ErrSaveFailed, err)
		}
		res.MatchedCount = ur.MatchedCount
		res.ModifiedCount = ur.ModifiedCount
		res.UpsertedCount = ur.UpsertedCount
		return res, nil
	}

	models := make([]mongo.WriteModel, len(plan))
	for i, s := range plan {
		models[i] = s.writeModel()
	}
	br, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if br != nil {
		res.InsertedCount = br.InsertedCount
		res.MatchedCount = br.MatchedCount
		res.ModifiedCount = br.ModifiedCount
		res.UpsertedCount = br.UpsertedCount
	}
	if err != nil {
		return res, errors.Join(ErrSaveFailed, err)
	}
	return res, nil
}

// ClearData deletes every document in collection and returns how many were removed.
func (m *Manager) ClearData(ctx context.Context, collection string) (int64, error) {
	coll := m.Collection(collection)
	if coll == nil {
		return 0, ErrNotConnected
	}
	dr, err := coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, errors.Join(ErrClearFailed, err)
	}
	return dr.DeletedCount, nil
}
