package document_test

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/document"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
	dummydb "github.com/unigate/unigate/storage/database/dummy"
	testutil "github.com/unigate/unigate/tests"
)

type docFixture struct {
	repo    *dummydb.DocumentRepository
	appRepo application.Repository
	files   *testutil.MemStorage
	db      *dummydb.DB
}

func setupDoc(t *testing.T) (*document.Service, *docFixture) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	hub := realtime.NewHub()
	logger := testutil.NewLogger()
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), hub)
	auditSvc := audit.NewService(dummydb.NewAuditRepository(db), logger)

	appRepo := dummydb.NewApplicationRepository(db)
	appSvc := application.NewService(appRepo, notifSvc, auditSvc, hub, nil)

	repo := dummydb.NewDocumentRepository(db)
	files := testutil.NewMemStorage()
	signer := document.NewURLSigner([]byte("test-secret"), 15*time.Minute)

	svc := document.NewService(repo, files, signer, appSvc, auditSvc, logger)
	return svc, &docFixture{
		repo:    repo,
		appRepo: appRepo,
		files:   files,
		db:      db,
	}
}

func TestService_Upload(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu := testutil.CreateStudent(t, dummydb.NewStudentRepository(fix.db), "acme", "Ada", "Lovelace", "ada@test.cd", "India", "India", "")
	app := testutil.CreateApplication(t, fix.appRepo, "acme", stu.ID, "prog-1", "", application.StatusDraft)

	doc, err := svc.Upload(ctx, staff, document.NewDocument{
		StudentID:     stu.ID,
		ApplicationID: app.ID,
		Kind:          document.KindPassport,
		Filename:      "passport.pdf",
		ContentType:   "application/pdf",
	}, strings.NewReader("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if doc.ByteSize != int64(len("%PDF-1.4 test")) {
		t.Errorf("ByteSize = %d, want %d", doc.ByteSize, len("%PDF-1.4 test"))
	}
	if fix.files.Len() != 1 {
		t.Errorf("stored blobs = %d, want 1", fix.files.Len())
	}

	// the upload bumps the application's document count and activity
	got, err := fix.appRepo.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication() failed: %v", err)
	}
	if got.DocumentsCount != 1 {
		t.Errorf("DocumentsCount = %d, want 1", got.DocumentsCount)
	}
}

func TestService_Upload_compensatesFailedInsert(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu := testutil.CreateStudent(t, dummydb.NewStudentRepository(fix.db), "acme", "Ada", "Lovelace", "ada@test.cd", "", "", "")

	fix.repo.FailCreate = errors.New("insert failed")
	defer func() { fix.repo.FailCreate = nil }()

	_, err := svc.Upload(ctx, staff, document.NewDocument{
		StudentID: stu.ID,
		Filename:  "passport.pdf",
	}, strings.NewReader("data"))
	if err == nil {
		t.Fatal("Upload() succeeded, want insert failure")
	}
	if fix.files.Len() != 0 {
		t.Errorf("stored blobs = %d, want 0 (blob must be compensated away)", fix.files.Len())
	}
}

func TestService_Upload_oversize(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	origMax := document.MaxUploadSize
	document.MaxUploadSize = 16
	defer func() { document.MaxUploadSize = origMax }()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu := testutil.CreateStudent(t, dummydb.NewStudentRepository(fix.db), "acme", "Ada", "Lovelace", "ada@test.cd", "", "", "")

	_, err := svc.Upload(ctx, staff, document.NewDocument{
		StudentID: stu.ID,
		Filename:  "passport.pdf",
	}, strings.NewReader(strings.Repeat("x", 64)))
	if core.KindOf(err) != core.KindValidation {
		t.Fatalf("Upload() kind = %v, want validation", core.KindOf(err))
	}
	if fix.files.Len() != 0 {
		t.Errorf("stored blobs = %d, want 0 (oversize blob must be deleted)", fix.files.Len())
	}
}

func TestService_access(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	owner := testutil.NewActor("acme", profile.RoleStudent)
	stranger := testutil.NewActor("acme", profile.RoleStudent)
	linkedAgent := testutil.NewActor("acme", profile.RoleAgent)
	unlinkedAgent := testutil.NewActor("acme", profile.RoleAgent)

	stuRepo := dummydb.NewStudentRepository(fix.db)
	stu := testutil.CreateStudent(t, stuRepo, "acme", "Ada", "Lovelace", "ada@test.cd", "", "", owner.ID)

	agentRepo := dummydb.NewAgentRepository(fix.db)
	agt := testutil.CreateAgent(t, agentRepo, "acme", linkedAgent.ID, "Amani Recruiters", "amani@test.cd")
	testutil.CreateAgent(t, agentRepo, "acme", unlinkedAgent.ID, "Other Agency", "other@test.cd")
	testutil.CreateApplication(t, fix.appRepo, "acme", stu.ID, "prog-1", agt.ID, application.StatusDraft)

	doc, err := svc.Upload(ctx, owner, document.NewDocument{
		StudentID: stu.ID,
		Filename:  "passport.pdf",
	}, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	tests := []struct {
		name     string
		actor    profile.Actor
		wantKind core.Kind
	}{
		{name: "owner", actor: owner, wantKind: core.KindUnknown},
		{name: "other student", actor: stranger, wantKind: core.KindPermissionDenied},
		{name: "linked agent", actor: linkedAgent, wantKind: core.KindUnknown},
		{name: "unlinked agent", actor: unlinkedAgent, wantKind: core.KindPermissionDenied},
		{name: "staff", actor: testutil.NewActor("acme", profile.RoleStaff), wantKind: core.KindUnknown},
		{name: "other tenant staff", actor: testutil.NewActor("globex", profile.RoleStaff), wantKind: core.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.actor, doc.ID)
			if tt.wantKind == core.KindUnknown {
				if err != nil {
					t.Errorf("Get() failed: %v", err)
				}
			} else if core.KindOf(err) != tt.wantKind {
				t.Errorf("Get() kind = %v, want %v", core.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestService_OpenSigned(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu := testutil.CreateStudent(t, dummydb.NewStudentRepository(fix.db), "acme", "Ada", "Lovelace", "ada@test.cd", "", "", "")

	doc, err := svc.Upload(ctx, staff, document.NewDocument{
		StudentID: stu.ID,
		Filename:  "passport.pdf",
	}, strings.NewReader("signed data"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	signedURL, err := svc.SignedURL(ctx, staff, doc.ID)
	if err != nil {
		t.Fatalf("SignedURL() failed: %v", err)
	}
	u, err := url.Parse(signedURL)
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}
	q := u.Query()

	// the signature replaces the bearer token
	got, rc, err := svc.OpenSigned(ctx, doc.ID, q.Get("expires"), q.Get("signature"))
	if err != nil {
		t.Fatalf("OpenSigned() failed: %v", err)
	}
	defer rc.Close()
	if got.ID != doc.ID {
		t.Errorf("OpenSigned() doc = %s, want %s", got.ID, doc.ID)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "signed data" {
		t.Errorf("OpenSigned() body = %q, want %q", data, "signed data")
	}

	if _, _, err = svc.OpenSigned(ctx, doc.ID, q.Get("expires"), "bm9wZQ"); core.KindOf(err) != core.KindPermissionDenied {
		t.Errorf("OpenSigned() with forged signature: kind = %v, want permission denied", core.KindOf(err))
	}
}

func TestService_Delete(t *testing.T) {
	svc, fix := setupDoc(t)
	ctx := context.Background()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu := testutil.CreateStudent(t, dummydb.NewStudentRepository(fix.db), "acme", "Ada", "Lovelace", "ada@test.cd", "", "", "")
	app := testutil.CreateApplication(t, fix.appRepo, "acme", stu.ID, "prog-1", "", application.StatusDraft)

	doc, err := svc.Upload(ctx, staff, document.NewDocument{
		StudentID:     stu.ID,
		ApplicationID: app.ID,
		Filename:      "passport.pdf",
	}, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	if err = svc.Delete(ctx, staff, doc.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = svc.Get(ctx, staff, doc.ID); core.KindOf(err) != core.KindNotFound {
		t.Errorf("Get() after delete: kind = %v, want not found", core.KindOf(err))
	}
	if fix.files.Len() != 0 {
		t.Errorf("stored blobs = %d, want 0", fix.files.Len())
	}

	got, err := fix.appRepo.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication() failed: %v", err)
	}
	if got.DocumentsCount != 0 {
		t.Errorf("DocumentsCount = %d, want 0", got.DocumentsCount)
	}
}
