package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// The override side-table lives in a singleton document.
const (
	CollectionTasksState = "tasksState"
	tasksStateDocID      = "state"
)

// GetTasksState loads the override document; a missing document is an
// empty state, not an error.
func (s *Store) GetTasksState() (TasksState, error) {
	d, err := s.Get(CollectionTasksState, tasksStateDocID)
	if errors.Is(err, sql.ErrNoRows) {
		return TasksState{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ts TasksState
	if err := json.Unmarshal(d.Data, &ts); err != nil {
		return nil, fmt.Errorf("decode tasks state: %w", err)
	}
	if ts == nil {
		ts = TasksState{}
	}
	return ts, nil
}

// SaveTasksState replaces the whole override document.
func (s *Store) SaveTasksState(ts TasksState) error {
	return s.Put(CollectionTasksState, tasksStateDocID, ts)
}

// DecodeTasksState extracts the override map from a raw subscription
// snapshot of the tasksState collection.
func DecodeTasksState(docs []Document) TasksState {
	for _, d := range docs {
		if d.ID != tasksStateDocID {
			continue
		}
		var ts TasksState
		if err := json.Unmarshal(d.Data, &ts); err == nil && ts != nil {
			return ts
		}
	}
	return TasksState{}
}
