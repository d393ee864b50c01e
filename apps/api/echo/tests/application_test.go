package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/profile"
	testutil "github.com/unigate/unigate/tests"
)

func TestApplicationAPI_create(t *testing.T) {
	tenant := "app-create"
	staff := testutil.NewActor(tenant, profile.RoleStaff)
	studentActor := testutil.NewActor(tenant, profile.RoleStudent)
	agentActor := testutil.NewActor(tenant, profile.RoleAgent)

	uni := testutil.CreateUniversity(t, catalogRepo, tenant, "Westford University", "United Kingdom")
	prog := testutil.CreateProgram(t, catalogRepo, uni.ID, "MSc Data Science", "MSc")
	ownStu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "India", "India", studentActor.ID)
	otherStu := testutil.CreateStudent(t, studentRepo, tenant, "Grace", "Hopper", "grace@test.cd", "", "", "")
	testutil.CreateAgent(t, agentRepo, tenant, agentActor.ID, "Amani Recruiters", "amani@test.cd")

	body := func(stuID string) []byte {
		return []byte(fmt.Sprintf(`{"student_id":%q,"program_id":%q}`, stuID, prog.ID))
	}

	tests := []httpTest{
		{
			name:     "no token",
			body:     body(ownStu.ID),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "empty body",
			token:    getToken(t, staff),
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "student cannot apply for someone else",
			token:    getToken(t, studentActor),
			body:     body(otherStu.ID),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "agent must name their agency",
			token:    getToken(t, agentActor),
			body:     body(otherStu.ID),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"agent_id":"this field is required"}`),
		},
		{
			name:     "staff creates",
			token:    getToken(t, staff),
			body:     body(otherStu.ID),
			wantCode: http.StatusCreated,
		},
		{
			name:     "student applies for self",
			token:    getToken(t, studentActor),
			body:     body(ownStu.ID),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/applications", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var got application.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if got.Status != application.StatusLead {
					t.Errorf("Status = %q, want %q", got.Status, application.StatusLead)
				}
				if got.Tenant != tenant {
					t.Errorf("Tenant = %q, want %q", got.Tenant, tenant)
				}
			}
		})
	}
}

func TestApplicationAPI_query(t *testing.T) {
	tenant := "app-query"
	staff := testutil.NewActor(tenant, profile.RoleStaff)
	studentActor := testutil.NewActor(tenant, profile.RoleStudent)
	agentActor := testutil.NewActor(tenant, profile.RoleAgent)

	uni := testutil.CreateUniversity(t, catalogRepo, tenant, "Westford University", "United Kingdom")
	prog := testutil.CreateProgram(t, catalogRepo, uni.ID, "MSc Data Science", "MSc")
	ownStu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "", "", studentActor.ID)
	otherStu := testutil.CreateStudent(t, studentRepo, tenant, "Grace", "Hopper", "grace@test.cd", "", "", "")
	agt := testutil.CreateAgent(t, agentRepo, tenant, agentActor.ID, "Amani Recruiters", "amani@test.cd")

	testutil.CreateApplication(t, appRepo, tenant, ownStu.ID, prog.ID, "", application.StatusLead)
	testutil.CreateApplication(t, appRepo, tenant, otherStu.ID, prog.ID, agt.ID, application.StatusSubmitted)

	tests := []httpTest{
		{name: "no token", path: "/v1/applications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff sees the tenant", path: "/v1/applications", token: getToken(t, staff), wantCode: http.StatusOK, extra: 2},
		{name: "student sees own only", path: "/v1/applications", token: getToken(t, studentActor), wantCode: http.StatusOK, extra: 1},
		{name: "agent sees assigned only", path: "/v1/applications", token: getToken(t, agentActor), wantCode: http.StatusOK, extra: 1},
		{name: "status filter", path: "/v1/applications?status=submitted", token: getToken(t, staff), wantCode: http.StatusOK, extra: 1},
		{
			name:     "empty tenant lists empty",
			path:     "/v1/applications",
			token:    getToken(t, testutil.NewActor("app-query-empty", profile.RoleStaff)),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if want, ok := tt.extra.(int); ok {
				var details []application.Detail
				if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if len(details) != want {
					t.Errorf("len(details) = %d, want %d", len(details), want)
				}
			}
		})
	}
}

func TestApplicationAPI_retrieve(t *testing.T) {
	tenant := "app-retrieve"
	staff := testutil.NewActor(tenant, profile.RoleStaff)

	uni := testutil.CreateUniversity(t, catalogRepo, tenant, "Westford University", "United Kingdom")
	prog := testutil.CreateProgram(t, catalogRepo, uni.ID, "MSc Data Science", "MSc")
	stu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "India", "India", "")
	created := testutil.CreateApplication(t, appRepo, tenant, stu.ID, prog.ID, "", application.StatusSubmitted)

	req, rec := newAuthRequest(http.MethodGet, "/v1/applications/"+created.ID, getToken(t, staff))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var detail application.Detail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if detail.StudentName != "Ada Lovelace" || detail.UniversityName != "Westford University" {
		t.Errorf("joined fields missing: %+v", detail)
	}
	if detail.StageLabel != "Applied" || detail.StageIndex != 1 {
		t.Errorf("stage = %q/%d, want Applied/1", detail.StageLabel, detail.StageIndex)
	}
	if detail.Categorization.Level != application.LevelPG {
		t.Errorf("Categorization.Level = %q, want %q", detail.Categorization.Level, application.LevelPG)
	}

	// another tenant's staff cannot see it
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+created.ID, getToken(t, testutil.NewActor("globex", profile.RoleStaff)))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-tenant code = %d, want 404", rec.Code)
	}
}

func TestApplicationAPI_updateStatus(t *testing.T) {
	tenant := "app-status"
	staff := testutil.NewActor(tenant, profile.RoleStaff)
	studentActor := testutil.NewActor(tenant, profile.RoleStudent)

	stu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "", "", studentActor.ID)
	created := testutil.CreateApplication(t, appRepo, tenant, stu.ID, "prog-1", "", application.StatusLead)

	path := "/v1/applications/" + created.ID + "/status"

	tests := []httpTest{
		{
			name:     "students may not move the pipeline",
			token:    getToken(t, studentActor),
			body:     []byte(`{"status":"submitted"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "unknown status",
			token:    getToken(t, staff),
			body:     []byte(`{"status":"lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"invalid application status"}`),
		},
		{
			name:     "staff submits",
			token:    getToken(t, staff),
			body:     []byte(`{"status":"submitted","note":"docs complete"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var detail application.Detail
				if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if detail.Status != application.StatusSubmitted {
					t.Errorf("Status = %q, want submitted", detail.Status)
				}
				if detail.SubmittedAt.IsZero() {
					t.Error("SubmittedAt not stamped on first submission")
				}
			}
		})
	}
}

func TestApplicationAPI_destroy(t *testing.T) {
	tenant := "app-destroy"
	staff := testutil.NewActor(tenant, profile.RoleStaff)
	admin := testutil.NewActor(tenant, profile.RoleAdmin)

	stu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "", "", "")
	created := testutil.CreateApplication(t, appRepo, tenant, stu.ID, "prog-1", "", application.StatusLead)

	path := "/v1/applications/" + created.ID

	req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, staff))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff delete code = %d, want 403", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodDelete, path, getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin delete code = %d, want 204; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, path, getToken(t, staff))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete code = %d, want 404", rec.Code)
	}
}
