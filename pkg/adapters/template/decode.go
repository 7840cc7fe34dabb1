package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported template file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Extensions maps file extensions to their format.
var Extensions = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
	".toml": FormatTOML,
}

// FormatOf returns the format implied by a file name.
func FormatOf(path string) (Format, bool) {
	f, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// document is the on-disk shape of a dialogue template.
type document struct {
	Name              string           `mapstructure:"name"`
	Resources         []map[string]any `mapstructure:"resources"`
	DynamicResources  []map[string]any `mapstructure:"dynamic_resources"`
	ExpirationSeconds int              `mapstructure:"expiration_seconds"`
	ExpirationTime    int              `mapstructure:"expiration_time"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a template. fallbackName is used when the document does not
// declare a name (usually the file name without extension).
func Parse(data []byte, format Format, fallbackName string) (*domain.Template, error) {
	raw, err := unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
	}

	var doc document
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
	}

	tmpl := &domain.Template{
		Name:              doc.Name,
		ExpirationSeconds: doc.ExpirationSeconds,
	}
	if tmpl.Name == "" {
		tmpl.Name = fallbackName
	}
	// expiration_time is the older key for the same setting.
	if tmpl.ExpirationSeconds == 0 {
		tmpl.ExpirationSeconds = doc.ExpirationTime
	}

	if tmpl.Resources, err = decodeResources(doc.Resources, true); err != nil {
		return nil, fmt.Errorf("%w: resources: %v", domain.ErrInvalidTemplate, err)
	}
	if tmpl.DynamicResources, err = decodeResources(doc.DynamicResources, false); err != nil {
		return nil, fmt.Errorf("%w: dynamic_resources: %v", domain.ErrInvalidTemplate, err)
	}

	if err := Validate(tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Validate checks the declarative constraints of a template. Structural
// checks (cycles, Final, wrappers) happen when the graph is built.
func Validate(tmpl *domain.Template) error {
	if err := validate.Struct(tmpl); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
	}
	seen := make(map[string]bool, len(tmpl.Resources))
	for _, r := range tmpl.Resources {
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate resource %q", domain.ErrInvalidTemplate, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

func unmarshal(data []byte, format Format) (map[string]any, error) {
	out := map[string]any{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return out, nil
}

func decodeResources(items []map[string]any, static bool) ([]*domain.Resource, error) {
	out := make([]*domain.Resource, 0, len(items))
	for i, item := range items {
		// "type" is the older spelling of "kind".
		if _, ok := item["kind"]; !ok {
			if t, ok := item["type"]; ok {
				item["kind"] = t
			}
		}
		delete(item, "type")

		r := &domain.Resource{}
		if err := decode(item, r); err != nil {
			return nil, fmt.Errorf("resource %d: %w", i+1, err)
		}
		if r.Kind == "" {
			r.Kind = domain.KindPlain
		}
		if _, ok := item["order_index"]; !ok && static {
			r.OrderIndex = i
		}
		out = append(out, r)
	}
	return out, nil
}

func decode(input any, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(kindHook, numberHook),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var kindType = reflect.TypeOf(domain.Kind(""))

func kindHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != kindType || from.Kind() != reflect.String {
		return data, nil
	}
	return domain.ParseKind(reflect.ValueOf(data).String())
}

func numberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return n.Int64()
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	}
	return data, nil
}
