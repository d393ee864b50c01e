package dummydb

import (
	"context"
	"sort"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/document"
)

type DocumentRepository struct {
	db *DB

	// FailCreate forces CreateDocument to fail; used to exercise the
	// compensating blob delete in upload tests.
	FailCreate error
}

var _ document.Repository = (*DocumentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (repo *DocumentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	if repo.FailCreate != nil {
		return document.Document{}, repo.FailCreate
	}

	repo.db.document.Lock()
	defer repo.db.document.Unlock()

	repo.db.document.table[doc.ID] = &doc
	return doc, nil
}

func (repo *DocumentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	if doc, ok := repo.db.document.table[id]; ok {
		return *doc, nil
	}
	return document.Document{}, core.NotFoundError("document not found")
}

func (repo *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]document.Document, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var docs []document.Document
	for _, doc := range repo.db.document.table {
		if doc.StudentID == studentID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *DocumentRepository) ListByApplication(ctx context.Context, applicationID string) ([]document.Document, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var docs []document.Document
	for _, doc := range repo.db.document.table {
		if doc.ApplicationID == applicationID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	repo.db.document.Lock()
	defer repo.db.document.Unlock()
	delete(repo.db.document.table, id)
	return nil
}

func (repo *DocumentRepository) GetStudentRef(ctx context.Context, studentID string) (document.StudentRef, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if stu, ok := repo.db.student.table[studentID]; ok {
		return document.StudentRef{ID: stu.ID, Tenant: stu.Tenant, ProfileID: stu.ProfileID}, nil
	}
	return document.StudentRef{}, core.NotFoundError("student not found")
}

func (repo *DocumentRepository) StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error) {
	agentIDs := make(map[string]bool)
	repo.db.agent.RLock()
	for _, agt := range repo.db.agent.table {
		if agt.ProfileID == profileID {
			agentIDs[agt.ID] = true
		}
	}
	repo.db.agent.RUnlock()

	repo.db.application.RLock()
	defer repo.db.application.RUnlock()
	for _, app := range repo.db.application.table {
		if app.StudentID == studentID && agentIDs[app.AgentID] {
			return true, nil
		}
	}
	return false, nil
}
