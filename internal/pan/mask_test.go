package pan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		lastFour string
		want     string
	}{
		{name: "four digits", lastFour: "3456", want: "**** **** **** 3456"},
		{name: "empty string", lastFour: "", want: "****"},
		{name: "too short", lastFour: "12", want: "****"},
		{name: "too long", lastFour: "12345", want: "****"},
		{name: "non-digits", lastFour: "12ab", want: "****"},
		{name: "all zeros", lastFour: "0000", want: "**** **** **** 0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.lastFour))
		})
	}
}
