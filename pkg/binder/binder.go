package binder

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/segmentio/encoding/json"
)

// Binder implements echo.Binder for typed query parameters: it decodes them,
// cleans them with mold and validates them. It also extracts the raw field
// map of a create or update submission.
type Binder struct {
	queryDecoder *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
}

func New() (*Binder, error) {
	queryDecoder := schema.NewDecoder()
	queryDecoder.SetAliasTag("query")
	conform := modifiers.New()
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Binder{queryDecoder, conform, validate}, nil
}

// Bind decodes the query string into i, applies mod tags, defaults and
// validate tags.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	if err := b.decodeQuery(i, c.QueryParams()); err != nil {
		return err
	}
	if err := b.conform.Struct(req.Context(), i); err != nil {
		return errors.WithStack(err)
	}
	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}
	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return errors.WithStack(err)
		}
		return errcodes.ValidationError(formatValidationError(errs[0]))
	}
	return nil
}

func (b *Binder) decodeQuery(i interface{}, params url.Values) error {
	err := b.queryDecoder.Decode(i, params)
	if err == nil {
		return nil
	}
	errs, ok := err.(schema.MultiError)
	if !ok {
		return errors.WithStack(err)
	}
	for _, err := range errs {
		switch e := err.(type) {
		case schema.ConversionError:
			return errcodes.ValidationTypeError(formatSchemaConversionError(e))
		case schema.UnknownKeyError:
			return errcodes.UnknownParameter(e.Key)
		default:
			return errors.WithStack(err)
		}
	}
	return nil
}

// RawFields returns the submitted fields of a form or JSON body as a raw
// field map. JSON values may be strings, numbers, booleans, null or arrays of
// those; anything else is a type error.
func (b *Binder) RawFields(c echo.Context) (url.Values, error) {
	req := c.Request()
	if req.ContentLength == 0 {
		return url.Values{}, nil
	}

	ctype := req.Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		defer req.Body.Close()
		body := map[string]interface{}{}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
			}
			logger.FromEchoContext(c).Err(err).Warn("malformed json body")
			return nil, errcodes.MalformedPayload()
		}
		return jsonToValues(body)
	case strings.HasPrefix(ctype, echo.MIMEApplicationForm), strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		// FormParams also parses the body; query parameters are left out of
		// the result.
		if _, err := c.FormParams(); err != nil {
			return nil, errcodes.MalformedPayload()
		}
		if req.MultipartForm != nil {
			return url.Values(req.MultipartForm.Value), nil
		}
		return req.PostForm, nil
	}
	return nil, errcodes.UnsupportedMediaType()
}

func jsonToValues(body map[string]interface{}) (url.Values, error) {
	values := url.Values{}
	for key, raw := range body {
		items, isList := raw.([]interface{})
		if !isList {
			items = []interface{}{raw}
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := scalarString(item)
			if !ok {
				return nil, errcodes.ValidationTypeError(fmt.Sprintf("%q should be a string or a list of strings", key))
			}
			if item == nil && !isList {
				continue
			}
			out = append(out, s)
		}
		if len(out) > 0 || isList {
			values[key] = out
		}
	}
	return values, nil
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}
