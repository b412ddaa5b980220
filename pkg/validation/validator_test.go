package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draft struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Age      int    `json:"age" validate:"gte=0"`
}

func TestStruct_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"too short", "abc12", "must be at least 7 characters long"},
		{"contains password", "myPassWord1", "must not contain the word 'password'"},
		{"ok", "secret123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(draft{Name: "A", Email: "a@x.com", Password: tt.password})
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, ToDetails(err)["password"])
		})
	}
}

func TestStruct_UsesJSONNames(t *testing.T) {
	err := Struct(draft{Email: "nope", Password: "secret123", Age: -1})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be greater than or equal to 0", details["age"])
}

func TestToDetails_JSONErrors(t *testing.T) {
	var v struct {
		Age int `json:"age"`
	}
	err := json.Unmarshal([]byte(`{"age":"old"}`), &v)
	assert.Equal(t, map[string]string{"age": "must be a int"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
