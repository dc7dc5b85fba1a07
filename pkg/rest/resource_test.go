package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/fivetwenty-io/kcadmin/pkg/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, baseURL string, opts ...rest.Option) *rest.Resource {
	t.Helper()

	api, err := rest.New(baseURL, opts...)
	require.NoError(t, err)

	return api
}

func TestResource_URL(t *testing.T) {
	t.Parallel()

	paths := []struct {
		name     string
		resource func(*rest.Resource) *rest.Resource
		expected string
	}{
		{name: "root", resource: func(r *rest.Resource) *rest.Resource { return r }, expected: ""},
		{name: "one segment", resource: func(r *rest.Resource) *rest.Resource { return r.Navigate("foo") }, expected: "foo"},
		{name: "chained", resource: func(r *rest.Resource) *rest.Resource { return r.Navigate("foo").Navigate("bar") }, expected: "foo/bar"},
		{name: "string id", resource: func(r *rest.Resource) *rest.Resource { return r.Navigate("foo").ID("123").Navigate("bar") }, expected: "foo/123/bar"},
		{name: "int id and empty call", resource: func(r *rest.Resource) *rest.Resource { return r.Navigate("foo").ID(123).Navigate("bar").Call(nil, "") }, expected: "foo/123/bar"},
		{name: "underscore", resource: func(r *rest.Resource) *rest.Resource { return r.Navigate("under_score") }, expected: "under-score"},
		{name: "ids keep hyphens", resource: func(r *rest.Resource) *rest.Resource { return r.ID("under-score").ID("foo-bar") }, expected: "under-score/foo-bar"},
	}

	for _, baseURL := range []string{"http://x.com", "http://x.com/something"} {
		for _, appendSlash := range []bool{true, false} {
			for _, path := range paths {
				api := newAPI(t, baseURL, rest.WithAppendSlash(appendSlash))

				expected := baseURL
				if path.expected != "" {
					expected += "/" + path.expected
				}

				if appendSlash {
					expected += "/"
				}

				assert.Equal(t, expected, path.resource(api).URL(), "%s on %s (slash=%v)", path.name, baseURL, appendSlash)
			}
		}
	}
}

func TestResource_NavigateIsAssociative(t *testing.T) {
	t.Parallel()

	api := newAPI(t, "http://x.com")

	assert.Equal(t, api.Navigate("a").Navigate("b").URL(), api.Navigate("a", "b").URL())
	assert.Equal(t, "http://x.com/foo/123/bar", newAPI(t, "http://x.com", rest.WithAppendSlash(false)).Navigate("foo").ID(123).Navigate("bar").URL())
}

func TestResource_URLOverride(t *testing.T) {
	t.Parallel()

	api := newAPI(t, "A")

	assert.Equal(t, "B/", api.WithURL("B").URL())
	assert.Equal(t, "B/buzz/", api.Navigate("foo", "bar").WithURL("B").Navigate("buzz").URL())
	assert.Equal(t, "C/", api.Navigate("foo", "bar").WithURL("B").Navigate("buzz").WithURL("C").URL())
	assert.Equal(t, "B/", api.Call("ignored", "B").URL())
}

func TestResource_EmptyCallReturnsSelf(t *testing.T) {
	t.Parallel()

	api := newAPI(t, "http://x.com")
	assert.Same(t, api, api.Call(nil, ""))
	assert.Same(t, api, api.Navigate())
	assert.Equal(t, "http://x.com", api.Navigate().Store().BaseURL())
}

func TestResource_IsImmutable(t *testing.T) {
	t.Parallel()

	api := newAPI(t, "http://x.com")
	users := api.Navigate("users")
	raw := users.AsRaw()

	assert.Equal(t, "http://x.com/", api.URL())
	assert.Equal(t, "http://x.com/users/", users.URL())
	assert.False(t, users.Store().Raw())
	assert.True(t, raw.Store().Raw())
	assert.Equal(t, users.URL(), raw.URL())
}

func TestResource_PrivateSegment(t *testing.T) {
	t.Parallel()

	api := newAPI(t, "http://x.com")
	bad := api.Navigate("users", "_internal").Navigate("more")

	require.ErrorIs(t, bad.Err(), rest.ErrPrivateSegment)
	require.NoError(t, api.Err())

	_, err := bad.Get(context.Background(), nil)
	require.ErrorIs(t, err, rest.ErrPrivateSegment)

	_, _, err = bad.Delete(context.Background(), rest.Payload{}, nil)
	require.ErrorIs(t, err, rest.ErrPrivateSegment)
}

func TestResource_Verbs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		call   func(context.Context, *rest.Resource) error
	}{
		{method: http.MethodGet, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Get(ctx, url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodHead, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Head(ctx, url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodOptions, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Options(ctx, url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodPost, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Post(ctx, rest.JSON(map[string]string{"k": "v"}), url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodPut, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Put(ctx, rest.JSON(map[string]string{"k": "v"}), url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodPatch, call: func(ctx context.Context, r *rest.Resource) error {
			_, err := r.Patch(ctx, rest.JSON(map[string]string{"k": "v"}), url.Values{"foo": {"bar"}})

			return err
		}},
		{method: http.MethodDelete, call: func(ctx context.Context, r *rest.Resource) error {
			_, _, err := r.Delete(ctx, rest.JSON(map[string]string{"k": "v"}), url.Values{"foo": {"bar"}})

			return err
		}},
	}

	for _, testCase := range tests {
		t.Run(testCase.method, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/users/", request.URL.Path)
				assert.Equal(t, "foo=bar", request.URL.RawQuery)
				assert.Equal(t, "application/json", request.Header.Get("Accept"))
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			api := newAPI(t, server.URL)
			require.NoError(t, testCase.call(context.Background(), api.Navigate("users")))
		})
	}
}

func TestResource_RequestBody(t *testing.T) {
	t.Parallel()

	t.Run("data is encoded with the default serializer", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"foo":"bar"}`, string(body))
			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		result, err := newAPI(t, server.URL).Post(context.Background(), rest.JSON(map[string]string{"foo": "bar"}), nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, result.StatusCode)
		assert.Equal(t, "", result.Body)
	})

	t.Run("files take precedence over data", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.True(t, strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data; boundary="))

			if !assert.NoError(t, request.ParseMultipartForm(1<<20)) {
				return
			}

			assert.Equal(t, "bar", request.FormValue("foo"))

			file, header, err := request.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}

			defer func() { _ = file.Close() }()

			content, _ := io.ReadAll(file)
			assert.Equal(t, "realm.json", header.Filename)
			assert.Equal(t, `{"realm":"test"}`, string(content))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		payload := rest.Payload{
			Data:  map[string]string{"foo": "bar"},
			Files: []rest.File{{Field: "file", Name: "realm.json", Content: strings.NewReader(`{"realm":"test"}`)}},
		}

		_, err := newAPI(t, server.URL).Post(context.Background(), payload, nil)
		require.NoError(t, err)
	})

	t.Run("empty payloads", func(t *testing.T) {
		t.Parallel()

		assert.True(t, rest.Payload{}.Empty())
		assert.True(t, rest.Payload{ContentType: "application/yaml"}.Empty())
		assert.False(t, rest.JSON(map[string]any{}).Empty())
		assert.False(t, rest.Payload{Files: []rest.File{{Field: "file"}}}.Empty())
	})

	t.Run("no body without data", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Empty(t, request.Header.Get("Content-Type"))

			body, _ := io.ReadAll(request.Body)
			assert.Empty(t, body)
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		_, err := newAPI(t, server.URL).Put(context.Background(), rest.Payload{}, nil)
		require.NoError(t, err)
	})

	t.Run("explicit content type", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/yaml", request.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			body, _ := io.ReadAll(request.Body)
			assert.Equal(t, "foo: bar\n", string(body))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		api := newAPI(t, server.URL, rest.WithSerializers(rest.JSONSerializer{}, rest.YAMLSerializer{}))
		payload := rest.Payload{Data: map[string]string{"foo": "bar"}, ContentType: "application/yaml"}

		_, err := api.Post(context.Background(), payload, nil)
		require.NoError(t, err)
	})

	t.Run("unregistered content type", func(t *testing.T) {
		t.Parallel()

		api := newAPI(t, "http://unused.invalid")
		payload := rest.Payload{Data: map[string]string{"foo": "bar"}, ContentType: "application/xml"}

		_, err := api.Post(context.Background(), payload, nil)
		require.ErrorIs(t, err, rest.ErrSerializerUnavailable)
	})

	t.Run("unsupported form data", func(t *testing.T) {
		t.Parallel()

		api := newAPI(t, "http://unused.invalid")
		payload := rest.Payload{Data: []string{"nope"}, Files: []rest.File{{Field: "f", Name: "f"}}}

		_, err := api.Post(context.Background(), payload, nil)
		require.ErrorIs(t, err, rest.ErrUnsupportedFormData)
	})
}

func TestResource_DecodeBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		contentType string
		body        []byte
		expected    any
	}{
		{name: "json", status: 200, contentType: "application/json", body: []byte(`{"foo":"bar"}`), expected: map[string]any{"foo": "bar"}},
		{name: "json with charset", status: 200, contentType: "application/json; charset=utf-8", body: []byte(`[1,2]`), expected: []any{float64(1), float64(2)}},
		{name: "json alias", status: 200, contentType: "text/javascript", body: []byte(`"x"`), expected: "x"},
		{name: "no content", status: 204, contentType: "application/json", body: nil, expected: ""},
		{name: "reset content", status: 205, contentType: "application/json", body: nil, expected: ""},
		{name: "empty json body", status: 200, contentType: "application/json", body: nil, expected: ""},
		{name: "unregistered type", status: 200, contentType: "text/plain", body: []byte(`{"foo":"bar"}`), expected: `{"foo":"bar"}`},
		{name: "missing type", status: 200, contentType: "", body: []byte(`{"foo":"bar"}`), expected: `{"foo":"bar"}`},
		{name: "case sensitive", status: 200, contentType: "APPLICATION/JSON", body: []byte(`{"foo":"bar"}`), expected: `{"foo":"bar"}`},
		{name: "malformed json", status: 200, contentType: "application/json", body: []byte(`{"foo":`), expected: `{"foo":`},
		{name: "invalid utf8", status: 200, contentType: "text/plain", body: []byte{0xff, 0xfe, 0x00}, expected: []byte{0xff, 0xfe, 0x00}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
				// An empty Content-Type must stay empty instead of being sniffed.
				writer.Header()["Content-Type"] = []string{testCase.contentType}
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write(testCase.body)
			}))
			defer server.Close()

			result, err := newAPI(t, server.URL).Get(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, result.Body)
			assert.Equal(t, testCase.status, result.StatusCode)
			assert.Nil(t, result.Response)
		})
	}
}

func TestResource_DecodeChoosesSerializer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", request.URL.Query().Get("ct"))
		_, _ = writer.Write([]byte("foo: bar\n"))
	}))
	defer server.Close()

	api := newAPI(t, server.URL, rest.WithSerializers(rest.JSONSerializer{}, rest.YAMLSerializer{}))

	result, err := api.Get(context.Background(), url.Values{"ct": {"  text/yaml  ; charset=utf-8"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, result.Body)

	result, err = api.Get(context.Background(), url.Values{"ct": {"text/x-unknown"}})
	require.NoError(t, err)
	assert.Equal(t, "foo: bar\n", result.Body)
}

func TestResource_ResultUnmarshal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "text/plain")
		_, _ = writer.Write([]byte(`{"id":"42","enabled":true}`))
	}))
	defer server.Close()

	result, err := newAPI(t, server.URL).Get(context.Background(), nil)
	require.NoError(t, err)

	// Unmapped types fall back to the default serializer.
	var user struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}

	require.NoError(t, result.Unmarshal(&user))
	assert.Equal(t, "42", user.ID)
	assert.True(t, user.Enabled)
	assert.Equal(t, []byte(`{"id":"42","enabled":true}`), result.Bytes())
}

func TestResource_Raw(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.Header().Set("Location", "http://x.com/users/1")
		_, _ = writer.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	result, err := newAPI(t, server.URL).AsRaw().Get(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Response)
	assert.Equal(t, "http://x.com/users/1", result.Response.Header.Get("Location"))
	assert.Equal(t, map[string]any{"id": "1"}, result.Body)

	body, err := io.ReadAll(result.Response.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(body))
}

func TestResource_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		notFound bool
		client   bool
		server   bool
	}{
		{status: 400, client: true},
		{status: 401, client: true},
		{status: 404, client: true, notFound: true},
		{status: 409, client: true},
		{status: 499, client: true},
		{status: 500, server: true},
		{status: 503, server: true},
		{status: 599, server: true},
	}

	for _, testCase := range tests {
		t.Run(http.StatusText(testCase.status), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.status)
				_ = json.NewEncoder(writer).Encode(map[string]string{"errorMessage": "nope"})
			}))
			defer server.Close()

			_, err := newAPI(t, server.URL).Navigate("users").Get(context.Background(), nil)
			require.Error(t, err)

			assert.Equal(t, testCase.notFound, rest.IsNotFound(err))
			assert.Equal(t, testCase.client, rest.IsClientError(err))
			assert.Equal(t, testCase.server, rest.IsServerError(err))
			assert.Equal(t, testCase.status, rest.StatusCode(err))
			assert.Contains(t, err.Error(), "nope")

			if testCase.client {
				clientErr := &rest.ClientError{}
				require.True(t, errors.As(err, &clientErr))
				assert.Equal(t, server.URL+"/users/", clientErr.URL)
				assert.Equal(t, "nope", clientErr.Detail["errorMessage"])
				require.NotNil(t, clientErr.Response)

				body, err := io.ReadAll(clientErr.Response.Body)
				require.NoError(t, err)
				assert.Equal(t, clientErr.Body, body)
			}

			if testCase.server {
				serverErr := &rest.ServerError{}
				require.True(t, errors.As(err, &serverErr))
				assert.Contains(t, string(serverErr.Body), "nope")

				body, err := io.ReadAll(serverErr.Response.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "nope")
			}
		})
	}
}

func TestResource_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	_, err := newAPI(t, server.URL).Get(context.Background(), nil)

	statusErr := &rest.UnexpectedStatusError{}
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotModified, statusErr.StatusCode)
}

func TestResource_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		expected bool
	}{
		{status: http.StatusOK, expected: true},
		{status: http.StatusNoContent, expected: true},
		{status: http.StatusNotModified, expected: false},
	}

	for _, testCase := range tests {
		for _, raw := range []bool{true, false} {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, http.MethodDelete, request.Method)

				body, _ := io.ReadAll(request.Body)
				assert.JSONEq(t, `[{"id":"role"}]`, string(body))
				writer.WriteHeader(testCase.status)
			}))

			api := newAPI(t, server.URL, rest.WithRaw(raw))
			ok, resp, err := api.Delete(context.Background(), rest.JSON([]map[string]string{{"id": "role"}}), nil)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, ok)

			if raw {
				require.NotNil(t, resp)
				assert.Equal(t, testCase.status, resp.StatusCode)
			} else {
				assert.Nil(t, resp)
			}

			server.Close()
		}
	}

	t.Run("errors are returned", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		ok, _, err := newAPI(t, server.URL).Delete(context.Background(), rest.Payload{}, nil)
		require.True(t, rest.IsNotFound(err))
		assert.False(t, ok)
	})
}

func TestResource_QueryAppendsToExisting(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "briefRepresentation=true&max=10", request.URL.RawQuery)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	api := newAPI(t, server.URL+"/users?briefRepresentation=true", rest.WithAppendSlash(false))

	_, err := api.Get(context.Background(), url.Values{"max": {"10"}})
	require.NoError(t, err)
}
