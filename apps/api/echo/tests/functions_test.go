package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/profile"
	emailsvc "github.com/unigate/unigate/services/email"
	testutil "github.com/unigate/unigate/tests"
)

func TestFunctionsAPI_generateImage(t *testing.T) {
	var failUpstream bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failUpstream {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.test/1.png"}},
		})
	}))
	defer upstream.Close()

	origURL := conf.ImageAPI.URL
	conf.ImageAPI.URL = upstream.URL
	defer func() { conf.ImageAPI.URL = origURL }()

	validator := testutil.NewActor("fn-image", profile.RoleStudent)
	caller := testutil.NewActor("fn-image", profile.RoleStudent)
	unlucky := testutil.NewActor("fn-image", profile.RoleStaff)

	tests := []httpTest{
		{
			name:     "no token",
			body:     []byte(`{"prompt":"a campus"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "prompt required",
			token:    getToken(t, validator),
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"prompt":"this field is required"}`),
		},
		{
			name:     "invalid size",
			token:    getToken(t, validator),
			body:     []byte(`{"prompt":"a campus","size":"4x4"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "generates",
			token:    getToken(t, caller),
			body:     []byte(`{"prompt":"a campus","style":"watercolor"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"url":"https://img.test/1.png"}`),
		},
		{
			name:     "generates again",
			token:    getToken(t, caller),
			body:     []byte(`{"prompt":"a library"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"url":"https://img.test/1.png"}`),
		},
		{
			name:     "rate limited",
			token:    getToken(t, caller),
			body:     []byte(`{"prompt":"one too many"}`),
			wantCode: http.StatusTooManyRequests,
			wantData: []byte(`{"error":"rate limit exceeded"}`),
		},
		{
			name:     "upstream failure",
			token:    getToken(t, unlucky),
			body:     []byte(`{"prompt":"a campus"}`),
			wantCode: http.StatusServiceUnavailable,
			wantData: []byte(`{"error":"image service replied 500"}`),
			extra:    true, // flip the upstream into failure first
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if flip, ok := tt.extra.(bool); ok && flip {
				failUpstream = true
			}
			req, rec := newAuthRequest(http.MethodPost, "/functions/generate-image", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestFunctionsAPI_applicationStatusEmail(t *testing.T) {
	tenant := "fn-email"
	staff := testutil.NewActor(tenant, profile.RoleStaff)
	studentActor := testutil.NewActor(tenant, profile.RoleStudent)

	uni := testutil.CreateUniversity(t, catalogRepo, tenant, "Westford University", "United Kingdom")
	prog := testutil.CreateProgram(t, catalogRepo, uni.ID, "MSc Data Science", "MSc")
	stu := testutil.CreateStudent(t, studentRepo, tenant, "Ada", "Lovelace", "ada@test.cd", "India", "India", "")
	mute := testutil.CreateStudent(t, studentRepo, tenant, "No", "Email", "", "", "", "")
	mailed := testutil.CreateApplication(t, appRepo, tenant, stu.ID, prog.ID, "", application.StatusReview)
	unmailable := testutil.CreateApplication(t, appRepo, tenant, mute.ID, prog.ID, "", application.StatusReview)

	body := func(appID, status string) []byte {
		return []byte(fmt.Sprintf(`{"application_id":%q,"status":%q,"note":"congrats"}`, appID, status))
	}

	tests := []httpTest{
		{
			name:     "staff only",
			token:    getToken(t, studentActor),
			body:     body(mailed.ID, ""),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "unknown application",
			token:    getToken(t, staff),
			body:     body(uuid.New().String(), ""),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "student without email",
			token:    getToken(t, staff),
			body:     body(unmailable.ID, ""),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"application_id":"the student has no email address on file"}`),
		},
		{
			name:     "moves status and mails",
			token:    getToken(t, staff),
			body:     body(mailed.ID, application.StatusConditionalOffer),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":true}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil

			req, rec := newAuthRequest(http.MethodPost, "/functions/application-status-email", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				if len(emailsvc.SentMessages) != 0 {
					t.Errorf("sent %d emails, want none", len(emailsvc.SentMessages))
				}
				return
			}

			if len(emailsvc.SentMessages) != 1 {
				t.Fatalf("sent %d emails, want 1", len(emailsvc.SentMessages))
			}
			msg := emailsvc.SentMessages[0]
			if msg.To[0].Address != "ada@test.cd" {
				t.Errorf("To = %q, want ada@test.cd", msg.To[0].Address)
			}
			if msg.Subject != "Application update: Offer" {
				t.Errorf("Subject = %q, want %q", msg.Subject, "Application update: Offer")
			}
			if msg.HTMLContent == "" {
				t.Error("HTMLContent empty, want the rendered template")
			}

			got, err := appRepo.GetApplication(req.Context(), mailed.ID)
			if err != nil {
				t.Fatalf("GetApplication() failed: %v", err)
			}
			if got.Status != application.StatusConditionalOffer {
				t.Errorf("Status = %q, want %q", got.Status, application.StatusConditionalOffer)
			}
		})
	}
}

func TestFunctionsAPI_cors(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/functions/generate-image", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the configured origin", got)
	}
}
