// Package api embeds the OpenAPI document of the dispatch HTTP surface.
package api

import (
	_ "embed"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.yml
var document []byte

// Load parses and validates the embedded document.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, err
	}
	if err = doc.Validate(loader.Context); err != nil {
		return nil, err
	}
	return doc, nil
}

// swaggerDoc serves the document as JSON through the swag registry, which
// echo-swagger reads for /swagger/doc.json.
type swaggerDoc struct {
	doc *openapi3.T
}

func (s swaggerDoc) ReadDoc() string {
	raw, err := s.doc.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(raw)
}

var registerOnce sync.Once

// RegisterSwagger publishes doc under swag.Name. Only the first call has an
// effect.
func RegisterSwagger(doc *openapi3.T) {
	registerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{doc: doc})
	})
}
