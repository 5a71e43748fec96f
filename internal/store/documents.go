package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Document is a raw row of a collection: JSON payload plus the
// store-stamped timestamps.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Put creates or fully replaces a document. The store stamps
// created_at on first insert and updated_at on every write.
func (s *Store) Put(collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO documents (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, doc_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("put document %s/%s: %w", collection, id, err)
	}
	s.notify(collection)
	return nil
}

// Get fetches a single document. Missing documents surface the
// underlying sql.ErrNoRows through the wrapped error.
func (s *Store) Get(collection, id string) (*Document, error) {
	d := &Document{ID: id}
	var data, createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT data, created_at, updated_at FROM documents WHERE collection = ? AND doc_id = ?`,
		collection, id,
	).Scan(&data, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	d.Data = json.RawMessage(data)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return d, nil
}

// Update merges the given fields into the document's JSON. Field
// granularity is the whole top-level value: updating an embedded array
// replaces the entire array, matching the legacy wire contract.
func (s *Store) Update(collection, id string, fields map[string]any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if err := updateInTx(tx, collection, id, fields); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	s.notify(collection)
	return nil
}

func updateInTx(tx *sql.Tx, collection, id string, fields map[string]any) error {
	var data string
	err := tx.QueryRow(
		`SELECT data FROM documents WHERE collection = ? AND doc_id = ?`, collection, id,
	).Scan(&data)
	if err != nil {
		return fmt.Errorf("load document %s/%s: %w", collection, id, err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal field %q: %w", k, err)
		}
		doc[k] = raw
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND doc_id = ?`,
		string(merged), now, collection, id,
	)
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *Store) Delete(collection, id string) error {
	_, err := s.db.Exec(
		`DELETE FROM documents WHERE collection = ? AND doc_id = ?`, collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	s.notify(collection)
	return nil
}

// List returns every document of a collection in insertion order.
func (s *Store) List(collection string) ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT doc_id, data, created_at, updated_at FROM documents
		 WHERE collection = ? ORDER BY created_at, doc_id`, collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var data, createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &data, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.Data = json.RawMessage(data)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Batches ---

type batchOp struct {
	kind       string // "set", "update", "delete"
	collection string
	id         string
	value      any
	fields     map[string]any
}

// Batch accumulates writes that commit atomically in one transaction.
type Batch struct {
	store *Store
	ops   []batchOp
}

func (s *Store) NewBatch() *Batch {
	return &Batch{store: s}
}

func (b *Batch) Set(collection, id string, v any) *Batch {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, value: v})
	return b
}

func (b *Batch) Update(collection, id string, fields map[string]any) *Batch {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, fields: fields})
	return b
}

func (b *Batch) Delete(collection, id string) *Batch {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
	return b
}

func (b *Batch) Len() int { return len(b.ops) }

// Commit applies every queued write in a single transaction; either
// all of them land or none do.
func (b *Batch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}
	tx, err := b.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, op := range b.ops {
		switch op.kind {
		case "set":
			data, err := json.Marshal(op.value)
			if err != nil {
				return fmt.Errorf("marshal document: %w", err)
			}
			_, err = tx.Exec(
				`INSERT INTO documents (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(collection, doc_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				op.collection, op.id, string(data), now, now,
			)
			if err != nil {
				return fmt.Errorf("batch set %s/%s: %w", op.collection, op.id, err)
			}
		case "update":
			if err := updateInTx(tx, op.collection, op.id, op.fields); err != nil {
				return err
			}
		case "delete":
			if _, err := tx.Exec(
				`DELETE FROM documents WHERE collection = ? AND doc_id = ?`, op.collection, op.id,
			); err != nil {
				return fmt.Errorf("batch delete %s/%s: %w", op.collection, op.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	seen := make(map[string]bool)
	for _, op := range b.ops {
		if !seen[op.collection] {
			seen[op.collection] = true
			b.store.notify(op.collection)
		}
	}
	return nil
}

// --- Subscriptions ---

// Subscription delivers the entire collection after every committed
// change, plus once on subscribe. There is no delta model; consumers
// rebuild derived views from each snapshot.
type Subscription struct {
	collection string
	ch         chan []Document
	store      *Store
	closed     bool
}

// Watch subscribes to a collection. Close the subscription to release it.
func (s *Store) Watch(collection string) *Subscription {
	sub := &Subscription{
		collection: collection,
		ch:         make(chan []Document, 16),
		store:      s,
	}
	s.mu.Lock()
	s.subs[collection] = append(s.subs[collection], sub)
	s.mu.Unlock()
	s.notify(collection)
	return sub
}

// Snapshots is the channel of full collection snapshots.
func (sub *Subscription) Snapshots() <-chan []Document { return sub.ch }

// Close unsubscribes and closes the snapshot channel.
func (sub *Subscription) Close() {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	list := s.subs[sub.collection]
	for i, candidate := range list {
		if candidate == sub {
			s.subs[sub.collection] = append(list[:i], list[i+1:]...)
			break
		}
	}
	close(sub.ch)
}

// notify delivers a fresh snapshot to every subscriber of the
// collection. A slow consumer has its oldest pending snapshot dropped;
// only the latest state matters.
func (s *Store) notify(collection string) {
	s.mu.Lock()
	subs := append([]*Subscription(nil), s.subs[collection]...)
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	docs, err := s.List(collection)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		if sub.closed {
			continue
		}
		for {
			select {
			case sub.ch <- docs:
			default:
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}
