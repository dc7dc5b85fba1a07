package rest

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Serializer encodes request bodies and decodes response bodies for a set of
// content types. The first content type is the one sent in headers.
// Implementations must be stateless.
type Serializer interface {
	ContentTypes() []string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// BinarySerializer is implemented by serializers whose wire format is not text.
// Their bodies are decoded without the UTF-8 check applied to text formats.
type BinarySerializer interface {
	Serializer
	Binary() bool
}

// ContentTypeOf returns the default content type of s, or "" if it has none.
func ContentTypeOf(s Serializer) string {
	types := s.ContentTypes()
	if len(types) == 0 {
		return ""
	}

	return types[0]
}

// MatchesContentType reports whether s handles contentType.
func MatchesContentType(s Serializer, contentType string) bool {
	return slices.Contains(s.ContentTypes(), contentType)
}

func isBinary(s Serializer) bool {
	b, ok := s.(BinarySerializer)

	return ok && b.Binary()
}

// Serializers is an ordered serializer registry. The first entry is the default
// encoder.
type Serializers []Serializer

// DefaultSerializers returns a registry holding only the JSON serializer.
func DefaultSerializers() Serializers {
	return Serializers{JSONSerializer{}}
}

// Default returns the serializer used to encode request bodies.
func (s Serializers) Default() Serializer {
	if len(s) == 0 {
		return nil
	}

	return s[0]
}

// Lookup returns the first serializer matching contentType.
func (s Serializers) Lookup(contentType string) (Serializer, bool) {
	for _, serializer := range s {
		if MatchesContentType(serializer, contentType) {
			return serializer, true
		}
	}

	return nil, false
}

// Encoder returns the serializer registered for contentType, failing with
// ErrSerializerUnavailable when there is none.
func (s Serializers) Encoder(contentType string) (Serializer, error) {
	serializer, ok := s.Lookup(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSerializerUnavailable, contentType)
	}

	return serializer, nil
}

// JSONSerializer handles JSON payloads.
type JSONSerializer struct{}

var jsonContentTypes = []string{
	"application/json",
	"application/x-javascript",
	"text/javascript",
	"text/x-javascript",
	"text/x-json",
}

func (JSONSerializer) ContentTypes() []string { return slices.Clone(jsonContentTypes) }

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}

	return data, nil
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	return nil
}

// YAMLSerializer handles YAML payloads.
type YAMLSerializer struct{}

var yamlContentTypes = []string{
	"application/yaml",
	"application/x-yaml",
	"text/yaml",
	"text/x-yaml",
}

func (YAMLSerializer) ContentTypes() []string { return slices.Clone(yamlContentTypes) }

func (YAMLSerializer) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	return data, nil
}

func (YAMLSerializer) Unmarshal(data []byte, v any) error {
	err := yaml.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("decoding YAML: %w", err)
	}

	return nil
}

// CBORSerializer handles CBOR payloads using core deterministic encoding.
type CBORSerializer struct{}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error

	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rest: CBOR encoder initialization failed: " + err.Error())
	}

	// Maps decoded into any must be usable alongside JSON-decoded values.
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("rest: CBOR decoder initialization failed: " + err.Error())
	}
}

func (CBORSerializer) ContentTypes() []string { return []string{"application/cbor"} }

func (CBORSerializer) Binary() bool { return true }

func (CBORSerializer) Marshal(v any) ([]byte, error) {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding CBOR: %w", err)
	}

	return data, nil
}

func (CBORSerializer) Unmarshal(data []byte, v any) error {
	err := cborDecMode.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("decoding CBOR: %w", err)
	}

	return nil
}
