package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/validation"
)

type sortRequest struct {
	Key string `json:"key" validate:"required,sortkey"`
}

type renderFlags struct {
	Sort []string `json:"sort" validate:"dive,sortkey"`
	Mode string   `json:"mode" validate:"oneof=and or"`
}

func TestValidator_SortKey(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "alpha", key: "alpha"},
		{name: "publisher", key: "publisher"},
		{name: "mixed case", key: "Rating"},
		{name: "missing", key: "", wantErr: true},
		{name: "unknown", key: "isbn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(sortRequest{Key: tt.key})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var appErr *domainerrors.Error
			require.True(t, domainerrors.As(err, &appErr))
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
			assert.Contains(t, appErr.Details.(map[string]string), "key")
		})
	}
}

func TestValidator_RenderFlags(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(renderFlags{Sort: []string{"rating", "alpha"}, Mode: "and"}))

	err := v.Validate(renderFlags{Sort: []string{"alpha", "isbn"}, Mode: "xor"})
	require.Error(t, err)

	var appErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &appErr))
	details := appErr.Details.(map[string]string)
	assert.Equal(t, "must be one of: alpha author year rating publisher", details["sort[1]"])
	assert.Equal(t, "must be one of: and or", details["mode"])
	assert.NotContains(t, details, "sort[0]")
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(sortRequest{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "key")
	assert.NotContains(t, err.Error(), "Key")
}

func TestValidator_UnknownKeyMessageListsKeys(t *testing.T) {
	v := validation.New()

	err := v.Validate(sortRequest{Key: "isbn"})
	require.Error(t, err)

	var appErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &appErr))
	assert.Equal(t, "must be one of: alpha author year rating publisher", appErr.Details.(map[string]string)["key"])
}
