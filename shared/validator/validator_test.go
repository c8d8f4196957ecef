package validator_test

import (
	"quicktable/shared/validator"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name   string `json:"name"   validate:"required,max=100"`
	Email  string `json:"email"  validate:"omitempty,email"`
	Date   string `json:"date"   validate:"required,dateonly"`
	Time   string `json:"time"   validate:"required,clock"`
	Guests int    `json:"guests" validate:"required,gte=1"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid request",
			body: `{"name":"Dinner","email":"guest@example.com","date":"2026-06-01","time":"18:00","guests":4}`,
		},
		{
			name:    "invalid json",
			body:    `{"name":`,
			wantErr: true,
		},
		{
			name:    "missing required field",
			body:    `{"email":"guest@example.com","date":"2026-06-01","time":"18:00","guests":4}`,
			wantErr: true,
		},
		{
			name:    "malformed date",
			body:    `{"name":"Dinner","date":"01-06-2026","time":"18:00","guests":4}`,
			wantErr: true,
		},
		{
			name:    "malformed time of day",
			body:    `{"name":"Dinner","date":"2026-06-01","time":"25:99","guests":4}`,
			wantErr: true,
		},
		{
			name:    "zero guests",
			body:    `{"name":"Dinner","date":"2026-06-01","time":"18:00","guests":0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest{}
			err := validator.Validate(strings.NewReader(tt.body), &req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("18:30", "clock"))
	assert.Error(t, validator.ValidateVar("half past six", "clock"))
	assert.NoError(t, validator.ValidateVar("2026-06-01", "dateonly"))
	assert.Error(t, validator.ValidateVar("June 1st", "dateonly"))
}
