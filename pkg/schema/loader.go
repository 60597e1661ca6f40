package schema

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed v1/run_manifest.schema.json
var runManifestSchema []byte

// Validate checks doc against the JSON schema at schemaPath and returns the
// violations, if any. The error is reserved for schema loading failures.
func Validate(schemaPath string, doc any) ([]string, error) {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", schemaPath, err)
	}
	return validate(gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(abs)), schemaPath, doc)
}

// ValidateManifest checks doc against the built-in run manifest schema.
func ValidateManifest(doc any) ([]string, error) {
	return validate(gojsonschema.NewBytesLoader(runManifestSchema), "run_manifest.schema.json", doc)
}

func validate(schemaLoader gojsonschema.JSONLoader, name string, doc any) ([]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}
