package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/document"
)

type documentApi struct {
	svc      *document.Service
	validate *validator.Validate
}

func registerDocumentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *document.Service, validate *validator.Validate) {
	api := documentApi{svc: svc, validate: validate}

	dg := g.Group("/documents")

	// the signature is the authorization; no bearer token
	dg.GET("/:id/download", api.downloadSigned)

	ag := dg.Group("", jwt)
	ag.POST("", api.upload)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/url", api.signedURL)
	ag.DELETE("/:id", api.destroy)
}

// upload accepts a multipart form: the blob under "file" plus the metadata
// fields of document.NewDocument.
func (api *documentApi) upload(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(err, "reading multipart file")
	}

	data := document.NewDocument{
		StudentID:     ctx.FormValue("student_id"),
		ApplicationID: ctx.FormValue("application_id"),
		Kind:          ctx.FormValue("kind"),
		Filename:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get(echo.HeaderContentType),
		ByteSize:      fileHeader.Size,
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening multipart file")
	}
	defer func() { _ = f.Close() }()

	doc, err := api.svc.Upload(ctx.Request().Context(), actor, data, f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	doc, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *documentApi) signedURL(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	url, err := api.svc.SignedURL(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"url": url})
}

func (api *documentApi) downloadSigned(ctx echo.Context) error {
	doc, rc, err := api.svc.OpenSigned(
		ctx.Request().Context(),
		ctx.Param("id"),
		ctx.QueryParam("expires"),
		ctx.QueryParam("signature"),
	)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", doc.Filename),
	)
	contentType := doc.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return ctx.Stream(http.StatusOK, contentType, rc)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
