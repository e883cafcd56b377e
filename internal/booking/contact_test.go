package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/models"
)

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name    string
		in      models.Contact
		wantErr error
	}{
		{"valid", models.Contact{Name: "Jane Doe", Phone: "+1 555 010 2030"}, nil},
		{"valid with email", models.Contact{Name: "Anne-Marie O'Neil", Phone: "(555) 010-20-30", Email: "am@example.com"}, nil},
		{"unicode name", models.Contact{Name: "Алёна", Phone: "89161234567"}, nil},
		{"missing name", models.Contact{Phone: "5550102030"}, ErrContactRequired},
		{"missing phone", models.Contact{Name: "Jane"}, ErrContactRequired},
		{"short name", models.Contact{Name: "J", Phone: "5550102030"}, ErrInvalidName},
		{"digits in name", models.Contact{Name: "Jane2", Phone: "5550102030"}, ErrInvalidName},
		{"too few digits", models.Contact{Name: "Jane", Phone: "555-0102"}, ErrInvalidPhone},
		{"too many digits", models.Contact{Name: "Jane", Phone: "1234567890123456"}, ErrInvalidPhone},
		{"plus in middle", models.Contact{Name: "Jane", Phone: "555+0102030"}, ErrInvalidPhone},
		{"letters in phone", models.Contact{Name: "Jane", Phone: "555010203x"}, ErrInvalidPhone},
		{"bad email", models.Contact{Name: "Jane", Phone: "5550102030", Email: "not-an-email"}, ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateContact(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateContact_Trims(t *testing.T) {
	c, err := ValidateContact(models.Contact{Name: "  Jane ", Phone: " 5550102030 ", Email: " j@example.com "})
	require.NoError(t, err)
	assert.Equal(t, models.Contact{Name: "Jane", Phone: "5550102030", Email: "j@example.com"}, c)
}
