// Package loader reads raw policy documents and selection configs from disk.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ancients-collective/guardrail/internal/engine"
)

// Document is one raw policy definition file.
type Document struct {
	Service string
	File    string
	Path    string
	Data    []byte
}

// Loader reads policy documents and validates selection configs.
type Loader struct {
	validate *validator.Validate
}

// New creates a Loader.
func New() *Loader {
	v := validator.New()

	// Empty entries are template padding; whitespace-only ones are typos.
	_ = v.RegisterValidation("guardrail_keyword", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || strings.TrimSpace(s) != ""
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Loader{validate: v}
}

// LoadDirectory reads every policy document under root. Each immediate
// sub-directory of root is a service and the .json files inside it are its
// documents, returned in lexical order. Loading continues past individual
// failures, which are returned in the error slice.
// Uses filepath.WalkDir and skips symlinks to prevent symlink-based attacks.
func (l *Loader) LoadDirectory(root string) ([]Document, []error) {
	var docs []Document
	var errs []error

	info, err := os.Stat(root)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to stat policy directory %q: %w", root, err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("policy path %q is not a directory", root)}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("error accessing %q: %w", path, err))
			return nil
		}
		if path == root {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			errs = append(errs, fmt.Errorf("skipping symlink: %s", path))
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("error resolving %q: %w", path, err))
			return nil
		}
		depth := len(strings.Split(rel, string(filepath.Separator)))

		if d.IsDir() {
			if depth > 1 {
				return fs.SkipDir
			}
			return nil
		}
		if depth != 2 || !isDocument(path) {
			return nil
		}

		data, err := readFileLimited(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}

		docs = append(docs, Document{
			Service: filepath.Dir(rel),
			File:    d.Name(),
			Path:    path,
			Data:    data,
		})
		return nil
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to walk directory %q: %w", root, err))
	}

	return docs, errs
}

// LoadConfig reads a YAML selection config.
func (l *Loader) LoadConfig(path string) (engine.Options, error) {
	data, err := readFileLimited(path)
	if err != nil {
		return engine.Options{}, fmt.Errorf("failed to read config: %w", err)
	}

	opts, err := l.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return engine.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// DecodeConfig decodes and validates a YAML selection config. Unknown keys
// are rejected and an empty document yields the zero config.
func (l *Loader) DecodeConfig(r io.Reader) (engine.Options, error) {
	var opts engine.Options

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return engine.Options{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := l.validate.Struct(opts); err != nil {
		return engine.Options{}, formatValidationErrors(err)
	}
	return opts, nil
}

// formatValidationErrors converts validator errors into user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// formatFieldError converts a single field validation error to a human-readable message.
func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, after, ok := strings.Cut(field, "."); ok {
		field = after
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "guardrail_keyword":
		return fmt.Sprintf("%s must not be blank (use an empty string for padding)", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
