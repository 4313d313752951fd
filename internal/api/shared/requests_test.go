package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
		anyErr  bool
	}{
		{name: "valid json", body: `{"name": "test", "age": 30}`},
		{name: "invalid json", body: `{"name": "test", "age": 30,}`, anyErr: true},
		{name: "empty body", body: "", wantErr: ErrEmptyBody},
		{name: "trailing data", body: `{"name":"a"} {"name":"b"}`, anyErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.body))
			var got payload
			err := DecodeJSON(req, &got)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, payload{Name: "test", Age: 30}, got)
			}
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Text  string `validate:"required"`
		Speed int    `validate:"gte=-50,lte=100"`
	}

	assert.NoError(t, ValidateRequest(request{Text: "你好", Speed: 10}))

	err := ValidateRequest(request{Speed: 200})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.EqualError(t, ValidateRequest(selfValidating{}), "not ok")
}
