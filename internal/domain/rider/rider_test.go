package rider

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRider_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rider   Rider
		wantErr bool
	}{
		{name: "Valid", rider: Rider{ID: uuid.New(), Name: "Anna"}},
		{name: "Missing ID", rider: Rider{Name: "Anna"}, wantErr: true},
		{name: "Blank name", rider: Rider{ID: uuid.New(), Name: "  "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rider.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRider)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
