package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	bookingSchema = mustCompileSchema("booking.json")
	reviewSchema  = mustCompileSchema("review.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFiles.Open("schemas/" + name)
	if err != nil {
		panic(err)
	}
	defer raw.Close()
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, raw); err != nil {
		panic(fmt.Sprintf("load schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decodeValidated reads the body, validates it against schema and decodes it
// into v. On failure the response has been written.
func decodeValidated(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return false
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	if err := schema.Validate(doc); err != nil {
		http.Error(w, "invalid request: "+schemaDetail(err), http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

// schemaDetail names the first failing field.
func schemaDetail(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return ve.Message
	}
	return field + ": " + ve.Message
}
