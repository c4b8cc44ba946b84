// Copyright 2026 oapiproxy Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spec

import (
	"fmt"
	"log"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// DefaultMaxDepth bounds schema unfolding. Reference cycles are cut into
// KindAny leaves once the bound is exhausted, guaranteeing termination on
// cyclic $ref graphs.
const DefaultMaxDepth = 12

// LoadOptions controls specification loading.
type LoadOptions struct {
	// Strict escalates OpenAPI model warnings to load errors.
	Strict bool
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
}

// Load parses raw OpenAPI 3.x bytes (JSON or YAML) into a normalized
// SpecModel. It is a pure transform: any structural problem fails the whole
// load with an error naming the offending document path.
func Load(specBytes []byte, opts LoadOptions) (*core.SpecModel, error) {
	config := datamodel.NewDocumentConfiguration()
	config.AllowFileReferences = true
	config.AllowRemoteReferences = true

	document, err := libopenapi.NewDocumentWithConfiguration(specBytes, config)
	if err != nil {
		return nil, &core.MalformedSpecError{Reason: fmt.Sprintf("failed to parse document: %v", err)}
	}

	docModel, buildErrs := document.BuildV3Model()
	if len(buildErrs) > 0 {
		if opts.Strict {
			var msgs []string
			for _, e := range buildErrs {
				msgs = append(msgs, e.Error())
			}
			return nil, &core.MalformedSpecError{Reason: strings.Join(msgs, "; ")}
		}
		log.Printf("OpenAPI validation warnings (permissive mode): %d warnings", len(buildErrs))
	}
	if docModel == nil {
		return nil, &core.MalformedSpecError{Reason: "document did not produce an OpenAPI v3 model"}
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	l := &loader{maxDepth: maxDepth}

	model := &core.SpecModel{}
	if docModel.Model.Info != nil {
		model.Title = docModel.Model.Info.Title
		model.Version = docModel.Model.Info.Version
	}
	for _, server := range docModel.Model.Servers {
		if server != nil && server.URL != "" {
			model.Servers = append(model.Servers, server.URL)
		}
	}

	if docModel.Model.Paths == nil || docModel.Model.Paths.PathItems == nil {
		return model, nil
	}

	for pathPairs := docModel.Model.Paths.PathItems.First(); pathPairs != nil; pathPairs = pathPairs.Next() {
		path := pathPairs.Key()
		pathItem := pathPairs.Value()
		if pathItem == nil {
			continue
		}
		operations := pathItem.GetOperations()
		for opPairs := operations.First(); opPairs != nil; opPairs = opPairs.Next() {
			op, err := l.buildOperation(opPairs.Key(), path, opPairs.Value())
			if err != nil {
				return nil, err
			}
			model.Operations = append(model.Operations, op)
		}
	}
	return model, nil
}

type loader struct {
	maxDepth int
}

// buildOperation normalizes one method+path entry.
func (l *loader) buildOperation(method, path string, operation *v3.Operation) (*core.Operation, error) {
	docPath := fmt.Sprintf("paths.%s.%s", path, strings.ToLower(method))

	op := &core.Operation{
		Method:      strings.ToUpper(method),
		Path:        path,
		OperationID: operation.OperationId,
		Description: operationDescription(method, path, operation),
	}

	for i, param := range operation.Parameters {
		paramPath := fmt.Sprintf("%s.parameters[%d]", docPath, i)
		if param == nil {
			return nil, &core.MalformedSpecError{DocPath: paramPath, Reason: "empty parameter entry"}
		}
		if param.Name == "" {
			return nil, &core.MalformedSpecError{DocPath: paramPath, Reason: "parameter has no name"}
		}
		in := core.ParameterLocation(param.In)
		if !in.IsValid() {
			return nil, &core.MalformedSpecError{DocPath: paramPath, Reason: fmt.Sprintf("invalid parameter location %q", param.In)}
		}
		schema, err := l.buildSchema(param.Schema, paramPath+".schema", l.maxDepth)
		if err != nil {
			return nil, err
		}
		description := param.Description
		if description == "" {
			description = fmt.Sprintf("%s parameter %s", param.In, param.Name)
		}
		op.Parameters = append(op.Parameters, core.Parameter{
			Name:        param.Name,
			In:          in,
			Required:    param.Required != nil && *param.Required,
			Description: description,
			Schema:      schema,
		})
	}

	if operation.RequestBody != nil {
		body, err := l.buildRequestBody(operation.RequestBody, docPath+".requestBody")
		if err != nil {
			return nil, err
		}
		op.Body = body
	}

	// The "body" argument name is reserved for the request body; a
	// same-named parameter would be shadowed silently otherwise.
	if op.Body != nil {
		if _, clash := op.Param("body"); clash {
			return nil, &core.MalformedSpecError{
				DocPath: docPath,
				Reason:  `operation declares both a request body and a parameter named "body"`,
			}
		}
	}

	op.ResponseContentTypes = successContentTypes(operation)
	return op, nil
}

func operationDescription(method, path string, operation *v3.Operation) string {
	description := operation.Description
	if description == "" {
		description = operation.Summary
	}
	if description == "" {
		description = fmt.Sprintf("%s %s", strings.ToUpper(method), path)
	}
	return description
}

// contentTypePriority is the preference order when an operation declares
// multiple request body content types.
var contentTypePriority = []string{"application/json", "*/*", "text/xml", "application/xml", "text/plain"}

func (l *loader) buildRequestBody(rb *v3.RequestBody, docPath string) (*core.RequestBody, error) {
	if rb.Content == nil {
		return nil, nil
	}

	contentType := ""
	var media *v3.MediaType
	for _, candidate := range contentTypePriority {
		for contentPairs := rb.Content.First(); contentPairs != nil; contentPairs = contentPairs.Next() {
			if contentPairs.Key() == candidate {
				contentType = candidate
				media = contentPairs.Value()
				break
			}
		}
		if media != nil {
			break
		}
	}
	if media == nil {
		for contentPairs := rb.Content.First(); contentPairs != nil; contentPairs = contentPairs.Next() {
			contentType = contentPairs.Key()
			media = contentPairs.Value()
			break
		}
	}
	if media == nil {
		return nil, nil
	}
	if contentType == "*/*" {
		contentType = "application/json"
	}

	schema, err := l.buildSchema(media.Schema, fmt.Sprintf("%s.content.%s.schema", docPath, contentType), l.maxDepth)
	if err != nil {
		return nil, err
	}
	return &core.RequestBody{
		Schema:      schema,
		ContentType: contentType,
		Required:    rb.Required != nil && *rb.Required,
	}, nil
}

// buildSchema converts a libopenapi schema proxy into a normalized Schema.
// depth is decremented on every recursion; at zero the node becomes KindAny,
// which is what cuts $ref cycles.
func (l *loader) buildSchema(proxy *base.SchemaProxy, docPath string, depth int) (*core.Schema, error) {
	if proxy == nil {
		return core.AnySchema(), nil
	}
	if depth <= 0 {
		return core.AnySchema(), nil
	}

	schema := proxy.Schema()
	if schema == nil {
		ref := proxy.GetReference()
		if ref == "" {
			return nil, &core.MalformedSpecError{DocPath: docPath, Reason: "schema could not be built"}
		}
		return nil, &core.UnresolvedReferenceError{DocPath: docPath, Ref: ref}
	}

	if len(schema.AllOf) > 0 {
		return l.mergeAllOf(schema, docPath, depth)
	}
	if len(schema.OneOf) > 0 || len(schema.AnyOf) > 0 {
		return l.buildUnion(schema, docPath, depth)
	}
	if len(schema.Enum) > 0 {
		return buildEnum(schema), nil
	}

	switch schemaType(schema) {
	case "string":
		return &core.Schema{Kind: core.KindString, Description: schema.Description}, nil
	case "number":
		return &core.Schema{Kind: core.KindNumber, Description: schema.Description}, nil
	case "integer":
		return &core.Schema{Kind: core.KindInteger, Description: schema.Description}, nil
	case "boolean":
		return &core.Schema{Kind: core.KindBoolean, Description: schema.Description}, nil
	case "array":
		return l.buildArray(schema, docPath, depth)
	case "object":
		return l.buildObject(schema, docPath, depth)
	default:
		// Untyped schemas and additionalProperties-only schemas are
		// treated permissively.
		if schema.Properties != nil && schema.Properties.Len() > 0 {
			return l.buildObject(schema, docPath, depth)
		}
		return &core.Schema{Kind: core.KindAny, Description: schema.Description}, nil
	}
}

// schemaType returns the first non-null declared type, or "".
func schemaType(schema *base.Schema) string {
	for _, t := range schema.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}

func buildEnum(schema *base.Schema) *core.Schema {
	enumKind := core.KindString
	switch schemaType(schema) {
	case "integer":
		enumKind = core.KindInteger
	case "number":
		enumKind = core.KindNumber
	}

	values := make([]any, 0, len(schema.Enum))
	for _, node := range schema.Enum {
		if node == nil {
			continue
		}
		var v any
		if err := node.Decode(&v); err != nil {
			v = node.Value
		}
		values = append(values, v)
	}
	return &core.Schema{
		Kind:        core.KindEnum,
		EnumKind:    enumKind,
		Enum:        values,
		Description: schema.Description,
	}
}

func (l *loader) buildArray(schema *base.Schema, docPath string, depth int) (*core.Schema, error) {
	items := core.AnySchema()
	if schema.Items != nil && schema.Items.IsA() {
		built, err := l.buildSchema(schema.Items.A, docPath+".items", depth-1)
		if err != nil {
			return nil, err
		}
		items = built
	}
	return &core.Schema{Kind: core.KindArray, Items: items, Description: schema.Description}, nil
}

func (l *loader) buildObject(schema *base.Schema, docPath string, depth int) (*core.Schema, error) {
	out := &core.Schema{
		Kind:        core.KindObject,
		Properties:  map[string]*core.Schema{},
		Description: schema.Description,
	}
	if schema.Properties != nil {
		for propPairs := schema.Properties.First(); propPairs != nil; propPairs = propPairs.Next() {
			propName := propPairs.Key()
			prop, err := l.buildSchema(propPairs.Value(), fmt.Sprintf("%s.properties.%s", docPath, propName), depth-1)
			if err != nil {
				return nil, err
			}
			out.Properties[propName] = prop
		}
	}
	out.Required = append(out.Required, schema.Required...)
	return out, nil
}

func (l *loader) buildUnion(schema *base.Schema, docPath string, depth int) (*core.Schema, error) {
	out := &core.Schema{Kind: core.KindUnion, Description: schema.Description}
	for i, variant := range schema.OneOf {
		built, err := l.buildSchema(variant, fmt.Sprintf("%s.oneOf[%d]", docPath, i), depth-1)
		if err != nil {
			return nil, err
		}
		out.Variants = append(out.Variants, built)
	}
	for i, variant := range schema.AnyOf {
		built, err := l.buildSchema(variant, fmt.Sprintf("%s.anyOf[%d]", docPath, i), depth-1)
		if err != nil {
			return nil, err
		}
		out.Variants = append(out.Variants, built)
	}
	return out, nil
}

// mergeAllOf flattens an allOf composition into a single object schema.
// Property sets are unioned; a property declared with two different kinds
// fails the load.
func (l *loader) mergeAllOf(schema *base.Schema, docPath string, depth int) (*core.Schema, error) {
	merged := &core.Schema{
		Kind:        core.KindObject,
		Properties:  map[string]*core.Schema{},
		Description: schema.Description,
	}

	members := make([]*core.Schema, 0, len(schema.AllOf)+1)
	for i, member := range schema.AllOf {
		built, err := l.buildSchema(member, fmt.Sprintf("%s.allOf[%d]", docPath, i), depth-1)
		if err != nil {
			return nil, err
		}
		members = append(members, built)
	}
	// The composing schema may carry its own properties next to allOf.
	if schema.Properties != nil && schema.Properties.Len() > 0 {
		own, err := l.buildObject(schema, docPath, depth)
		if err != nil {
			return nil, err
		}
		members = append(members, own)
	}

	for _, member := range members {
		switch member.Kind {
		case core.KindAny:
			continue
		case core.KindObject:
			for name, prop := range member.Properties {
				if existing, ok := merged.Properties[name]; ok && existing.Kind != prop.Kind {
					return nil, &core.IncompatibleCompositionError{
						DocPath: docPath,
						Detail:  fmt.Sprintf("property %q declared as both %s and %s", name, existing.Kind, prop.Kind),
					}
				}
				merged.Properties[name] = prop
			}
			for _, req := range member.Required {
				if !merged.IsRequired(req) {
					merged.Required = append(merged.Required, req)
				}
			}
		default:
			return nil, &core.IncompatibleCompositionError{
				DocPath: docPath,
				Detail:  fmt.Sprintf("allOf member of kind %s cannot be merged into an object", member.Kind),
			}
		}
	}
	return merged, nil
}

// successContentTypes lists content types declared on 2xx responses, in
// declaration order.
func successContentTypes(operation *v3.Operation) []string {
	if operation.Responses == nil || operation.Responses.Codes == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for statusPairs := operation.Responses.Codes.First(); statusPairs != nil; statusPairs = statusPairs.Next() {
		var status int
		if _, err := fmt.Sscanf(statusPairs.Key(), "%d", &status); err != nil || status < 200 || status >= 300 {
			continue
		}
		response := statusPairs.Value()
		if response == nil || response.Content == nil {
			continue
		}
		for contentPairs := response.Content.First(); contentPairs != nil; contentPairs = contentPairs.Next() {
			if !seen[contentPairs.Key()] {
				seen[contentPairs.Key()] = true
				out = append(out, contentPairs.Key())
			}
		}
	}
	return out
}
