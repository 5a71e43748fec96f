package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CollectionProjects is the projects collection name.
const CollectionProjects = "projects"

func decodeProject(d Document) (Project, error) {
	var p Project
	if err := json.Unmarshal(d.Data, &p); err != nil {
		return Project{}, fmt.Errorf("decode project %s: %w", d.ID, err)
	}
	p.DocID = d.ID
	return p, nil
}

// CreateProject assigns a storage key and sequential id, stamps the
// timestamps and persists the project. The id is provisional; the
// reconciler owns the dense-unique invariant.
func (s *Store) CreateProject(p *Project) error {
	p.DocID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = &now
	p.UpdatedAt = &now
	if p.ID == 0 {
		existing, err := s.ListProjects()
		if err != nil {
			return fmt.Errorf("assign project id: %w", err)
		}
		for _, other := range existing {
			if other.ID >= p.ID {
				p.ID = other.ID + 1
			}
		}
		if p.ID == 0 {
			p.ID = 1
		}
	}
	return s.Put(CollectionProjects, p.DocID, p)
}

func (s *Store) GetProject(docID string) (*Project, error) {
	d, err := s.Get(CollectionProjects, docID)
	if err != nil {
		return nil, err
	}
	p, err := decodeProject(*d)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every project ordered by sequential id
// ascending, mirroring the live query ordering.
func (s *Store) ListProjects() ([]Project, error) {
	docs, err := s.List(CollectionProjects)
	if err != nil {
		return nil, err
	}
	var projects []Project
	for _, d := range docs {
		p, err := decodeProject(d)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

// UpdateProject merges the given top-level fields into the project
// document. Callers that represent a user edit include an "updatedAt"
// entry; array overwrites from the task view deliberately do not.
func (s *Store) UpdateProject(docID string, fields map[string]any) error {
	return s.Update(CollectionProjects, docID, fields)
}

// SaveSteps overwrites the project's whole proximos_passos array. The
// store has no per-element addressing; this is the wire contract.
func (s *Store) SaveSteps(docID string, steps []Step) error {
	return s.Update(CollectionProjects, docID, map[string]any{"proximos_passos": steps})
}

// SaveMetas overwrites the project's whole metas array.
func (s *Store) SaveMetas(docID string, metas []string) error {
	return s.Update(CollectionProjects, docID, map[string]any{"metas": metas})
}

// DeleteProject removes the project document; embedded steps, goals
// and attachment records go with it.
func (s *Store) DeleteProject(docID string) error {
	return s.Delete(CollectionProjects, docID)
}

// DecodeProjects converts a raw subscription snapshot into projects,
// ordered by sequential id. Undecodable documents are skipped rather
// than sinking the whole snapshot.
func DecodeProjects(docs []Document) []Project {
	var projects []Project
	for _, d := range docs {
		p, err := decodeProject(d)
		if err != nil {
			continue
		}
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}
