package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/application"
)

type functionsApi struct {
	deps   ServerDeps
	client *http.Client
}

func registerFunctionsAPI(g *echo.Group, deps ServerDeps) {
	api := functionsApi{
		deps:   deps,
		client: &http.Client{Timeout: deps.Conf.ImageAPI.Timeout},
	}

	g.POST("/generate-image", api.generateImage, rateLimitMiddleware(deps.Limiter, "generate-image"))
	g.POST("/application-status-email", api.applicationStatusEmail, staffMiddleware())
}

// generateImage proxies the third-party image API with the server-held key;
// the client never sees it.
func (api *functionsApi) generateImage(ctx echo.Context) error {
	var data GenerateImageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateImageRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	prompt := data.Prompt
	if data.Style != "" {
		prompt = fmt.Sprintf("%s, in %s style", prompt, data.Style)
	}
	size := data.Size
	if size == "" {
		size = "1024x1024"
	}

	body, err := json.Marshal(map[string]interface{}{
		"prompt": prompt,
		"size":   size,
		"n":      1,
	})
	if err != nil {
		return errors.Wrap(err, "encoding image request")
	}

	req, err := http.NewRequestWithContext(
		ctx.Request().Context(), http.MethodPost, api.deps.Conf.ImageAPI.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building image request")
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+api.deps.Conf.ImageAPI.Key)

	res, err := api.client.Do(req)
	if err != nil {
		return core.UnavailableError("image service unavailable", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= http.StatusBadRequest {
		return core.UnavailableError(fmt.Sprintf("image service replied %d", res.StatusCode))
	}

	var upstream struct {
		Data []struct {
			URL     string `json:"url"`
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err = json.NewDecoder(res.Body).Decode(&upstream); err != nil {
		return core.UnavailableError("decoding image service response", err)
	}
	if len(upstream.Data) == 0 {
		return core.UnavailableError("image service returned no image")
	}
	return ctx.JSON(http.StatusOK, GenerateImageResponse{
		URL: upstream.Data[0].URL,
		B64: upstream.Data[0].B64JSON,
	})
}

// applicationStatusEmail optionally moves the application to the given status
// and mails the student about it.
func (api *functionsApi) applicationStatusEmail(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data StatusEmailRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusEmailRequest")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var detail application.Detail
	if data.Status != "" {
		detail, err = api.deps.ApplicationSvc.UpdateStatus(reqCtx, actor, data.ApplicationID, application.UpdateStatus{
			Status: data.Status,
			Note:   data.Note,
		})
	} else {
		detail, err = api.deps.ApplicationSvc.Get(reqCtx, actor, data.ApplicationID)
	}
	if err != nil {
		return err
	}

	if detail.StudentEmail == "" {
		return core.NewValidationError(nil, core.FieldError{
			Field: "application_id",
			Error: "the student has no email address on file",
		})
	}

	api.deps.EmailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: detail.StudentName, Address: detail.StudentEmail}},
		Subject:      fmt.Sprintf("Application update: %s", detail.StageLabel),
		TemplateName: "application-status",
		TemplateData: map[string]interface{}{
			"StudentName":    detail.StudentName,
			"ProgramName":    detail.ProgramName,
			"UniversityName": detail.UniversityName,
			"Status":         detail.Status,
			"Note":           data.Note,
			"ApplicationID":  detail.ID,
		},
	})

	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

type (
	GenerateImageRequest struct {
		Prompt string `json:"prompt" validate:"required"`
		Size   string `json:"size" validate:"omitempty,oneof=256x256 512x512 1024x1024"`
		Style  string `json:"style"`
	}

	GenerateImageResponse struct {
		URL string `json:"url,omitempty"`
		B64 string `json:"b64,omitempty"`
	}

	StatusEmailRequest struct {
		ApplicationID string `json:"application_id" validate:"required,uuid4"`
		Status        string `json:"status" validate:"omitempty,appstatus"`
		Note          string `json:"note"`
	}
)

func (gr *GenerateImageRequest) Validate(validate *validator.Validate) error {
	gr.Prompt = core.CleanString(gr.Prompt)
	gr.Style = core.CleanString(gr.Style)
	return validate.Struct(gr)
}

func (sr *StatusEmailRequest) Validate(validate *validator.Validate) error {
	sr.Status = core.CleanString(sr.Status, true /* lower */)
	sr.Note = core.CleanString(sr.Note)
	return validate.Struct(sr)
}
