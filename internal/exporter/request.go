package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-render/pkg/models"
)

// envelopeSchema checks the outer shape only. Missing fields are reported
// separately, so both members accept null.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "data": {"type": ["object", "null"]},
    "template": {"type": ["string", "object", "null"]}
  }
}`

var envelope = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		panic(fmt.Sprintf("render request schema: %v", err))
	}
	return s
}()

// ParseRequest decodes a render request body. Empty, malformed, mis-shaped and
// incomplete bodies fail with distinct sentinels before any rendering work.
func ParseRequest(body []byte) (*models.RenderRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	if !json.Valid(body) {
		return nil, ErrMalformedJSON
	}

	res, err := envelope.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}

	var req models.RenderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := CheckRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// CheckRequest reports the first required field that is absent
func CheckRequest(req *models.RenderRequest) error {
	switch {
	case req == nil || req.Data == nil:
		return fmt.Errorf("%w: data", ErrMissingField)
	case req.Template.IsZero():
		return fmt.Errorf("%w: template", ErrMissingField)
	}
	return nil
}
