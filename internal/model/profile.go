package model

import "context"

// CompanyProfile is the structured output of a content extractor run
// against a resolved company website. FieldsExtracted is the coarse
// success signal callers key off; the search core never inspects the
// profile content itself.
type CompanyProfile struct {
	URL             string   `json:"url"`
	Name            string   `json:"name,omitempty"`
	Mission         string   `json:"mission,omitempty"`
	Phones          []string `json:"phones,omitempty"`
	Executives      []string `json:"executives,omitempty"`
	FieldsExtracted int      `json:"fields_extracted"`
}

// Extractor pulls a company profile out of an already-located website.
// Implementations live outside this module; the search core only
// resolves the URL handed to one.
type Extractor interface {
	Extract(ctx context.Context, url string) (*CompanyProfile, error)
}
