package rest

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
)

// Payload is the body of a mutating request.
//
// When Files is non-empty the request is sent as multipart/form-data and Data,
// if set, supplies the plain form fields. Otherwise Data is encoded with the
// serializer registered for ContentType, or with the default serializer when
// ContentType is empty.
type Payload struct {
	Data        any
	Files       []File
	ContentType string
}

// File is one multipart file part.
type File struct {
	Field       string
	Name        string
	Content     io.Reader
	ContentType string
}

// JSON is a shorthand for a payload encoded with the default serializer.
func JSON(data any) Payload {
	return Payload{Data: data}
}

// Empty reports whether the payload carries no body at all.
func (p Payload) Empty() bool {
	return p.Data == nil && len(p.Files) == 0
}

// encode returns the request body and its content type. The content type is
// empty when there is no body.
func (p Payload) encode(serializers Serializers) (io.Reader, string, error) {
	if p.Empty() {
		return nil, "", nil
	}

	if len(p.Files) > 0 {
		return p.encodeMultipart()
	}

	serializer := serializers.Default()
	if p.ContentType != "" {
		var err error

		serializer, err = serializers.Encoder(p.ContentType)
		if err != nil {
			return nil, "", err
		}
	}

	data, err := serializer.Marshal(p.Data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}

	return bytes.NewReader(data), ContentTypeOf(serializer), nil
}

func (p Payload) encodeMultipart() (io.Reader, string, error) {
	fields, err := formFields(p.Data)
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range sortedKeys(fields) {
		for _, value := range fields[name] {
			err := writer.WriteField(name, value)
			if err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
			}
		}
	}

	for _, file := range p.Files {
		part, err := createFilePart(writer, file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %s: %w", file.Field, err)
		}

		if file.Content != nil {
			_, err = io.Copy(part, file.Content)
			if err != nil {
				return nil, "", fmt.Errorf("failed to write file part %s: %w", file.Field, err)
			}
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func createFilePart(writer *multipart.Writer, file File) (io.Writer, error) {
	if file.ContentType == "" {
		return writer.CreateFormFile(file.Field, file.Name)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
	header.Set("Content-Type", file.ContentType)

	return writer.CreatePart(header)
}

func formFields(data any) (url.Values, error) {
	switch fields := data.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return fields, nil
	case map[string]string:
		values := url.Values{}
		for key, value := range fields {
			values.Set(key, value)
		}

		return values, nil
	case map[string]any:
		values := url.Values{}
		for key, value := range fields {
			values.Set(key, FormatSegment(value))
		}

		return values, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrUnsupportedFormData, data)
	}
}

func sortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
