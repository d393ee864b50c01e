package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Document kinds
const (
	KindPassport   = "passport"
	KindTranscript = "transcript"
	KindIELTS      = "ielts"
	KindOffer      = "offer"
	KindCAS        = "cas"
	KindVisa       = "visa"
	KindOther      = "other"
)

var AllKinds = []string{KindPassport, KindTranscript, KindIELTS, KindOffer, KindCAS, KindVisa, KindOther}

// upload policy
var (
	MaxUploadSize = int64(10 << 20) // 10 MiB

	allowedExtensions = map[string]bool{
		".pdf":  true,
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".doc":  true,
		".docx": true,
	}
)

type Document struct {
	ID            string    `json:"id"`
	Tenant        string    `json:"tenant"`
	StudentID     string    `json:"student_id"`
	ApplicationID string    `json:"application_id,omitempty"`
	Kind          string    `json:"kind"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	ByteSize      int64     `json:"byte_size"`
	StoragePath   string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewDocument carries upload metadata; the blob itself travels separately.
type NewDocument struct {
	StudentID     string `json:"student_id" validate:"required,uuid4"`
	ApplicationID string `json:"application_id" validate:"omitempty,uuid4"`
	Kind          string `json:"kind" validate:"omitempty,dockind"`
	Filename      string `json:"filename" validate:"required"`
	ContentType   string `json:"content_type"`
	ByteSize      int64  `json:"byte_size"`
}

// Validate applies the upload policy before any storage call is made.
func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.Kind = core.CleanString(nd.Kind, true /* lower */)
	if nd.Kind == "" {
		nd.Kind = KindOther
	}
	nd.Filename = filepath.Base(core.CleanString(nd.Filename))

	if err := validate.Struct(nd); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(nd.Filename)); !allowedExtensions[ext] {
		return core.NewValidationError(nil, core.FieldError{
			Field: "filename",
			Error: fmt.Sprintf("file type %q is not allowed", ext),
		})
	}
	if nd.ByteSize > MaxUploadSize {
		return core.NewValidationError(nil, core.FieldError{
			Field: "file",
			Error: fmt.Sprintf("file exceeds the maximum size of %d bytes", MaxUploadSize),
		})
	}
	return nil
}

var (
	docKindTag  = "dockind"
	docKindText = "invalid document kind"
)

// InitValidators registers document validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(docKindTag, docKindValidation)
	core.RegisterCustomTranslation(validate, translator, docKindTag, docKindText)
}

func docKindValidation(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range AllKinds {
		if kind == k {
			return true
		}
	}
	return false
}
