package main

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Envelope schemas only check shape; field rules live in roi.Validate.
var (
	scenarioCreateSchema = mustSchema(`{
		"type": "object",
		"required": ["name", "data"],
		"properties": {
			"name": {"type": "string"},
			"data": {"type": "object"}
		}
	}`)

	reportRequestSchema = mustSchema(`{
		"type": "object",
		"required": ["email", "scenario_data"],
		"properties": {
			"email": {"type": "string"},
			"scenario_data": {"type": "object"}
		}
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return schema
}

// checkEnvelope returns one message per schema violation, or nil.
func checkEnvelope(schema *gojsonschema.Schema, doc map[string]any) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate request envelope: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return details, nil
}
