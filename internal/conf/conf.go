// Package conf reads project settings and marker arguments.
//
// The project file, fastenum.conf at the module root, holds one
// "key = value" pair per line; blank lines and lines starting with # or //
// are ignored:
//
//	metadata_source = description
//	intercept = false
//
// Both the file and //fastenum:generate arguments are decoded with
// gorilla/schema and checked with validator struct tags.
package conf

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/johnsiilver/halfpike"
	"golang.org/x/mod/module"
)

// FileName is the project settings file looked up at the module root.
const FileName = "fastenum.conf"

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(false)
	validate.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
	validate.RegisterValidation("importpath", func(fl validator.FieldLevel) bool {
		return module.CheckImportPath(fl.Field().String()) == nil
	})
}

// Settings are the project-wide generator settings.
type Settings struct {
	// MetadataSource is the default member label source for every
	// enumeration without a metadata marker argument.
	MetadataSource string `schema:"metadata_source" validate:"omitempty,oneof=none description display json"`

	// Intercept enables call-site interception for the whole project.
	Intercept bool `schema:"intercept"`
}

// DefaultSettings returns the settings used when no project file exists.
func DefaultSettings() Settings {
	return Settings{Intercept: true}
}

// MarkerOptions are the arguments of a //fastenum:generate or
// //fastenum:external directive.
type MarkerOptions struct {
	// Name overrides the extension unit identifier.
	Name string `schema:"name" validate:"omitempty,goident"`

	// Package places the extension unit in another package.
	Package string `schema:"package" validate:"omitempty,importpath"`

	// Metadata overrides the project metadata source.
	Metadata string `schema:"metadata" validate:"omitempty,oneof=none description display json"`

	// Intercept allows interception of calls for this enumeration. It
	// defaults to true for local types and false for external ones.
	Intercept bool `schema:"intercept"`

	// Flags marks an external enumeration as a bit set. Local types use
	// the //fastenum:flags directive instead.
	Flags bool `schema:"flags"`
}

// DecodeSettings decodes and validates project settings, starting from
// DefaultSettings.
func DecodeSettings(values map[string]string) (Settings, error) {
	s := DefaultSettings()
	form := make(map[string][]string, len(values))
	for k, v := range values {
		form[k] = []string{v}
	}
	if err := decode(&s, form); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// DecodeMarker decodes and validates directive arguments over defaults.
func DecodeMarker(form map[string][]string, defaults MarkerOptions) (MarkerOptions, error) {
	o := defaults
	if err := decode(&o, form); err != nil {
		return MarkerOptions{}, err
	}
	return o, nil
}

func decode(dst any, form map[string][]string) error {
	for k, vs := range form {
		if len(vs) > 1 {
			return fmt.Errorf("%s given %d times", k, len(vs))
		}
	}
	if err := schemaDecoder.Decode(dst, form); err != nil {
		return describe(err)
	}
	if err := validate.Struct(dst); err != nil {
		return describe(err)
	}
	return nil
}

// describe flattens decoder and validator errors into one readable error.
func describe(err error) error {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		msgs := make([]string, 0, len(multi))
		for k, e := range multi {
			msgs = append(msgs, fmt.Sprintf("%s: %v", k, e))
		}
		slices.Sort(msgs)
		return errors.New(strings.Join(msgs, "; "))
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: invalid value %q (%s)", fe.Field(), fe.Value(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

// File is a parsed fastenum.conf and implements halfpike.HalfPike.
type File struct {
	// Values maps each key to its value.
	Values map[string]string

	// Lines maps each key to the line it was set on.
	Lines map[string]int
}

// Parse parses the content of a project settings file.
func Parse(ctx context.Context, content string) (*File, error) {
	f := &File{Values: map[string]string{}, Lines: map[string]int{}}
	if strings.TrimSpace(content) == "" {
		return f, nil
	}
	if err := halfpike.Parse(ctx, content, f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return f, nil
}

// Start is the start point for reading the file.
func (f *File) Start(ctx context.Context, p *halfpike.Parser) halfpike.ParseFn {
	return f.parseLine
}

func (f *File) parseLine(ctx context.Context, p *halfpike.Parser) halfpike.ParseFn {
	line := p.Next()
	// halfpike counts lines from zero.
	num := line.LineNum + 1
	items := significant(line)
	if len(items) > 0 {
		key, value, err := assignment(items)
		if err != nil {
			return p.Errorf("[Line %d] error: %s", num, err)
		}
		if prev, ok := f.Lines[key]; ok {
			return p.Errorf("[Line %d] error: %q already set on line %d", num, key, prev)
		}
		f.Values[key] = value
		f.Lines[key] = num
	}
	if p.EOF(line) {
		return nil
	}
	return f.parseLine
}

// Validate implements halfpike.Validator.
func (f *File) Validate() error {
	for k := range f.Values {
		if !token.IsIdentifier(k) {
			return fmt.Errorf("invalid key %q", k)
		}
	}
	return nil
}

// significant returns the values of the items before any comment.
func significant(line halfpike.Line) []string {
	var vals []string
	for _, item := range line.Items {
		if item.Val == "" {
			continue
		}
		if strings.HasPrefix(item.Val, "#") || strings.HasPrefix(item.Val, "//") {
			break
		}
		vals = append(vals, item.Val)
	}
	return vals
}

// assignment accepts "key = value", "key=value" and "key= value" forms.
func assignment(items []string) (key, value string, err error) {
	joined := strings.Join(items, " ")
	key, value, ok := strings.Cut(joined, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" {
		return "", "", fmt.Errorf("got %q, want key = value", joined)
	}
	if value == "" {
		return "", "", fmt.Errorf("missing value for %q", key)
	}
	return key, value, nil
}
