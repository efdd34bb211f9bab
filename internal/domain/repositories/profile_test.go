package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
)

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "jdoe", UsernameCandidate("jdoe", 0))
	assert.Equal(t, "jdoe 1", UsernameCandidate("jdoe", 1))
	assert.Equal(t, "jdoe 12", UsernameCandidate("jdoe", 12))
}

func TestValidateProfileUpdate(t *testing.T) {
	tests := []struct {
		name   string
		fields map[entities.ProfileField]string
		want   error
	}{
		{"fullname", map[entities.ProfileField]string{entities.ProfileFullname: "Jane Doe"}, nil},
		{"http picture", map[entities.ProfileField]string{entities.ProfilePicture: "https://cdn.example.com/a.png"}, nil},
		{"data picture", map[entities.ProfileField]string{entities.ProfilePicture: "data:image/png;base64,AAAA"}, nil},
		{"javascript picture", map[entities.ProfileField]string{entities.ProfilePicture: "javascript:alert(1)"}, ErrInvalidFieldValue},
		{"relative picture", map[entities.ProfileField]string{entities.ProfilePicture: "/a.png"}, ErrInvalidFieldValue},
		{"multiline fullname", map[entities.ProfileField]string{entities.ProfileFullname: "a\nb"}, ErrInvalidFieldValue},
		{"not allowed", map[entities.ProfileField]string{"email": "x@example.com"}, ErrFieldNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfileUpdate(tt.fields)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
