package api

import (
	"errors"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Default pagination for GET /notes/.
const (
	DefaultSkip  = 0
	DefaultLimit = 10
)

// CreateNoteRequest is the request body for creating a note. Both fields must
// be present and non-null; empty strings are allowed.
type CreateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Validate validates the request body.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NotNil.Error("field required")),
		validation.Field(&r.Content, validation.NotNil.Error("field required")),
	)
}

// ListParams holds the query parameters of GET /notes/.
type ListParams struct {
	Skip  int
	Limit int
}

// Validate validates the pagination window.
func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Skip, validation.Min(0)),
		validation.Field(&p.Limit, validation.Min(0)),
	)
}

// SearchParams holds the query parameters of GET /notes/search/.
type SearchParams struct {
	Keyword string
}

// Validate requires a keyword of at least one character.
func (p SearchParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Keyword,
			validation.Required.Error("field required"),
			validation.RuneLength(1, 0)),
	)
}

var errNotInteger = errors.New("must be an integer")

// parseListParams reads skip and limit, applying defaults for absent values.
func parseListParams(q url.Values) (ListParams, error) {
	p := ListParams{Skip: DefaultSkip, Limit: DefaultLimit}
	errs := validation.Errors{}
	if q.Has("skip") {
		v, err := strconv.Atoi(q.Get("skip"))
		if err != nil {
			errs["skip"] = errNotInteger
		}
		p.Skip = v
	}
	if q.Has("limit") {
		v, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			errs["limit"] = errNotInteger
		}
		p.Limit = v
	}
	if err := errs.Filter(); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func parseNoteID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validation.Errors{"note_id": errNotInteger}
	}
	return id, nil
}
