// Package docstore provides a small document-store contract on top of
// postgres jsonb: keyed documents grouped into collections, filtered queries,
// merge updates and atomic batched writes. Sub-collections are expressed as
// path-style collection names ("conversations/<room>/messages").
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"userhive/backend/internal/apperr"
)

// Document is one stored record. The collection/key pair is the identity;
// writing an existing pair replaces the data.
type Document struct {
	Collection string `gorm:"primaryKey;type:varchar(191)"`
	Key        string `gorm:"primaryKey;type:varchar(191)"`
	Data       string `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Condition matches one top-level document field against a value. Values are
// compared in their JSON text form.
type Condition struct {
	Field string
	Value any
}

// Group is a set of conditions that must all hold.
type Group []Condition

// Store is the document-store contract. Query treats its groups as
// alternatives: a document matches when any one group matches in full.
type Store interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	Query(ctx context.Context, collection string, groups ...Group) ([]json.RawMessage, error)
	Set(ctx context.Context, collection, key string, doc any) error
	Update(ctx context.Context, collection, key string, fields map[string]any) error
	Batch(ctx context.Context, fn func(b *Batch)) error
}

// PostgresStore implements Store on a gorm handle.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore constructor
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get reads one document. A missing document is NotFound.
func (s *PostgresStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "Could not found the document.")
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc.Data), nil
}

// Query returns every document in the collection matching any of the groups.
func (s *PostgresStore) Query(ctx context.Context, collection string, groups ...Group) ([]json.RawMessage, error) {
	q := s.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection)

	if sql, args := buildFilter(groups); sql != "" {
		q = q.Where(sql, args...)
	}

	var docs []Document
	if err := q.Order("key ASC").Find(&docs).Error; err != nil {
		return nil, err
	}

	results := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		results = append(results, json.RawMessage(doc.Data))
	}
	return results, nil
}

// Set upserts one document; retried writes with the same key are idempotent.
func (s *PostgresStore) Set(ctx context.Context, collection, key string, doc any) error {
	return set(s.db.WithContext(ctx), collection, key, doc)
}

// Update merges the given top-level fields into an existing document.
func (s *PostgresStore) Update(ctx context.Context, collection, key string, fields map[string]any) error {
	return update(s.db.WithContext(ctx), collection, key, fields)
}

// Batch runs every operation queued by fn in one transaction.
func (s *PostgresStore) Batch(ctx context.Context, fn func(b *Batch)) error {
	batch := &Batch{}
	fn(batch)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range batch.Ops {
			var err error
			if op.IsSet {
				err = set(tx, op.Collection, op.Key, op.Doc)
			} else {
				err = update(tx, op.Collection, op.Key, op.Fields)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// BatchOp is one queued write.
type BatchOp struct {
	IsSet      bool
	Collection string
	Key        string
	Doc        any
	Fields     map[string]any
}

// Batch queues writes for one atomic commit.
type Batch struct {
	Ops []BatchOp
}

// Set queues an upsert.
func (b *Batch) Set(collection, key string, doc any) {
	b.Ops = append(b.Ops, BatchOp{IsSet: true, Collection: collection, Key: key, Doc: doc})
}

// Update queues a merge update.
func (b *Batch) Update(collection, key string, fields map[string]any) {
	b.Ops = append(b.Ops, BatchOp{Collection: collection, Key: key, Fields: fields})
}

func set(tx *gorm.DB, collection, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&Document{
		Collection: collection,
		Key:        key,
		Data:       string(data),
	}).Error
}

func update(tx *gorm.DB, collection, key string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	res := tx.Model(&Document{}).
		Where("collection = ? AND key = ?", collection, key).
		Updates(map[string]any{
			"data":       gorm.Expr("data || ?::jsonb", string(patch)),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "Could not found the document.")
	}
	return nil
}

func buildFilter(groups []Group) (string, []any) {
	var sql strings.Builder
	var args []any

	wrote := false
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		if wrote {
			sql.WriteString(" OR ")
		}
		sql.WriteString("(")
		for i, cond := range group {
			if i > 0 {
				sql.WriteString(" AND ")
			}
			sql.WriteString("data ->> ? = ?")
			args = append(args, cond.Field, fmt.Sprint(cond.Value))
		}
		sql.WriteString(")")
		wrote = true
	}
	return sql.String(), args
}
