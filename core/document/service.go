package document

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/profile"
)

type (
	StudentRef struct {
		ID        string
		Tenant    string
		ProfileID string
	}

	Repository interface {
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		ListByStudent(ctx context.Context, studentID string) ([]Document, error)
		ListByApplication(ctx context.Context, applicationID string) ([]Document, error)
		DeleteDocument(ctx context.Context, id string) error

		GetStudentRef(ctx context.Context, studentID string) (StudentRef, error)
		StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error)
	}

	Service struct {
		repo     Repository
		files    core.FileStorage
		signer   *URLSigner
		appSvc   *application.Service
		auditSvc *audit.Service
		logger   core.Logger
	}
)

func NewService(repo Repository, files core.FileStorage, signer *URLSigner, appSvc *application.Service, auditSvc *audit.Service, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		signer:   signer,
		appSvc:   appSvc,
		auditSvc: auditSvc,
		logger:   logger,
	}
}

func (svc *Service) canAccessStudent(ctx context.Context, actor profile.Actor, studentID string) error {
	stu, err := svc.repo.GetStudentRef(ctx, studentID)
	if err != nil {
		return err
	}
	if stu.Tenant != actor.Tenant {
		return core.NotFoundError("student not found")
	}
	if actor.IsStaff() {
		return nil
	}
	if actor.IsStudent() {
		if stu.ProfileID == actor.ID {
			return nil
		}
		return core.PermissionError("permission denied")
	}
	linked, err := svc.repo.StudentLinkedToAgentProfile(ctx, studentID, actor.ID)
	if err != nil {
		return err
	}
	if !linked {
		return core.PermissionError("permission denied")
	}
	return nil
}

// Upload stores the blob first, then inserts the metadata row. When the row
// insert fails the stored blob is deleted best-effort: the compensating
// delete is logged, not guaranteed.
func (svc *Service) Upload(ctx context.Context, actor profile.Actor, nd NewDocument, r io.Reader) (Document, error) {
	if err := svc.canAccessStudent(ctx, actor, nd.StudentID); err != nil {
		return Document{}, err
	}

	id := uuid.New().String()
	storagePath := path.Join(
		"tenant", actor.Tenant,
		"students", nd.StudentID,
		"documents", id+"-"+nd.Filename,
	)

	size, err := svc.files.Save(ctx, storagePath, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Document{}, err
	}
	if size > MaxUploadSize {
		svc.compensateDelete(ctx, storagePath)
		return Document{}, core.NewValidationError(nil, core.FieldError{
			Field: "file",
			Error: fmt.Sprintf("file exceeds the maximum size of %d bytes", MaxUploadSize),
		})
	}

	doc := Document{
		ID:            id,
		Tenant:        actor.Tenant,
		StudentID:     nd.StudentID,
		ApplicationID: nd.ApplicationID,
		Kind:          nd.Kind,
		Filename:      nd.Filename,
		ContentType:   nd.ContentType,
		ByteSize:      size,
		StoragePath:   storagePath,
		CreatedAt:     time.Now().UTC(),
	}
	doc, err = svc.repo.CreateDocument(ctx, doc)
	if err != nil {
		svc.compensateDelete(ctx, storagePath)
		return Document{}, err
	}

	if doc.ApplicationID != "" {
		if err = svc.appSvc.BumpActivity(ctx, doc.ApplicationID, +1); err != nil {
			svc.logger.Error(fmt.Sprintf("bumping application %s activity: %v", doc.ApplicationID, err), err)
		}
	}
	svc.auditSvc.Record(ctx, actor, "document.upload", "document", doc.ID, map[string]interface{}{
		"student_id": doc.StudentID,
		"kind":       doc.Kind,
	})
	return doc, nil
}

func (svc *Service) compensateDelete(ctx context.Context, storagePath string) {
	if err := svc.files.Delete(ctx, storagePath); err != nil {
		svc.logger.Error(fmt.Sprintf("compensating delete of %s: %v", storagePath, err), err)
	}
}

func (svc *Service) Get(ctx context.Context, actor profile.Actor, id string) (Document, error) {
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Tenant != actor.Tenant {
		return Document{}, core.NotFoundError("document not found")
	}
	if err = svc.canAccessStudent(ctx, actor, doc.StudentID); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (svc *Service) Open(ctx context.Context, actor profile.Actor, id string) (Document, io.ReadCloser, error) {
	doc, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := svc.files.Open(ctx, doc.StoragePath)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// SignedURL mints an expiring download path for the document.
func (svc *Service) SignedURL(ctx context.Context, actor profile.Actor, id string) (string, error) {
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return "", err
	}
	return svc.signer.SignedPath(id), nil
}

// OpenSigned serves a signed download: no bearer token, the signature is the
// authorization.
func (svc *Service) OpenSigned(ctx context.Context, id, expires, sig string) (Document, io.ReadCloser, error) {
	if err := svc.signer.Verify(id, expires, sig); err != nil {
		return Document{}, nil, core.PermissionError(err.Error(), err)
	}
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := svc.files.Open(ctx, doc.StoragePath)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

func (svc *Service) ListByStudent(ctx context.Context, actor profile.Actor, studentID string) ([]Document, error) {
	if err := svc.canAccessStudent(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return svc.repo.ListByStudent(ctx, studentID)
}

func (svc *Service) ListByApplication(ctx context.Context, actor profile.Actor, applicationID string) ([]Document, error) {
	if _, err := svc.appSvc.Get(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return svc.repo.ListByApplication(ctx, applicationID)
}

// Delete removes the metadata row, then the blob best-effort.
func (svc *Service) Delete(ctx context.Context, actor profile.Actor, id string) error {
	doc, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteDocument(ctx, doc.ID); err != nil {
		return err
	}
	svc.compensateDelete(ctx, doc.StoragePath)

	if doc.ApplicationID != "" {
		if err = svc.appSvc.BumpActivity(ctx, doc.ApplicationID, -1); err != nil {
			svc.logger.Error(fmt.Sprintf("bumping application %s activity: %v", doc.ApplicationID, err), err)
		}
	}
	svc.auditSvc.Record(ctx, actor, "document.delete", "document", doc.ID, nil)
	return nil
}
