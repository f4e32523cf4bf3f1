package content

import (
	"errors"
	domainerr "geoblog/internal/domain/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"regexp"
	"time"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateMeta converts decoded frontmatter into an MDField. It never
// returns a partially valid record: any type or rule failure yields a
// domainerr.ValidationError.
func ValidateMeta(raw map[string]any) (MDField, error) {
	var ve domainerr.ValidationError

	m := MDField{
		Title:       stringField(raw, "title", &ve),
		Description: stringField(raw, "description", &ve),
		Date:        dateField(raw, "date", &ve),
		Tags:        listField(raw, "tags", &ve),
		GeoAllow:    listField(raw, "geoAllow", &ve),
		GeoBlock:    listField(raw, "geoBlock", &ve),
	}
	if ve.HasAny() {
		ve.Sort()
		return MDField{}, ve
	}

	m.Normalize()
	if err := m.Validate(); err != nil {
		return MDField{}, err
	}
	return m, nil
}

// Validate applies the schema rules to an already typed record.
func (m MDField) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Description, validation.Required),
		validation.Field(&m.Date,
			validation.Required,
			validation.Match(datePattern).Error("must be in YYYY-MM-DD format"),
		),
		validation.Field(&m.Tags, validation.Required),
		validation.Field(&m.GeoAllow, validation.NilOrNotEmpty),
		validation.Field(&m.GeoBlock,
			validation.NilOrNotEmpty,
			validation.When(m.GeoAllow != nil, validation.Nil.Error("cannot be set together with geoAllow")),
		),
	)
	return toValidationError(err)
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	var ve domainerr.ValidationError
	for field, fe := range errs {
		ve.Add(field, fe.Error())
	}
	ve.Sort()
	return ve
}

func stringField(raw map[string]any, key string, ve *domainerr.ValidationError) string {
	v, ok := raw[key]
	if !ok {
		ve.Add(key, "is required")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		ve.Add(key, "must be a string")
		return ""
	}
	return s
}

// dateField requires the quoted string form. YAML resolves an unquoted
// date to a timestamp and drops any time part, so that form is rejected.
func dateField(raw map[string]any, key string, ve *domainerr.ValidationError) string {
	if _, ok := raw[key].(time.Time); ok {
		ve.Add(key, "must be a quoted YYYY-MM-DD string")
		return ""
	}
	return stringField(raw, key, ve)
}

// listField returns nil only when the key is absent.
func listField(raw map[string]any, key string, ve *domainerr.ValidationError) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return append(make([]string, 0, len(items)), items...)
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				ve.Add(key, "must be a list of strings")
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		ve.Add(key, "must be a list of strings")
		return nil
	}
}
