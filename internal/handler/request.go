package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/flipit/internal/apperror"
)

// maxBodyBytes caps every request body. Card text is the largest input and
// is limited far below this by the service layer.
const maxBodyBytes = 1 << 20 // 1 MiB

// validate is shared by all handlers. A *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names ("title") rather than Go ones ("Title").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the body into dst and validates it.
//
// Any failure, from broken JSON, through a wrongly typed field or data after
// the object, to a missing required field, becomes a validation error
// carrying malformed as its message.
// Request DTOs use pointer fields so that `validate:"required"` means
// "present": an explicit empty string passes, an absent or null field does not.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, malformed string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", malformed)
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("", malformed)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.ValidationFailed(verrs[0].Field(), malformed)
		}
		return apperror.ValidationFailed("", malformed)
	}
	return nil
}

// optionalString is a request field that tells "absent" from an explicit
// null. Absent leaves the stored value alone; null is rejected.
type optionalString struct {
	present bool
	null    bool
	value   string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.present = true
	if string(data) == "null" {
		o.null = true
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

// ptr returns nil for an absent field.
func (o optionalString) ptr() *string {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}
