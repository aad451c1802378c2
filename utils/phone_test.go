package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		countryCode string
		national    string
		want        string
	}{
		{"plain", "+856", "2055512345", "+8562055512345"},
		{"trunk prefix dropped", "+66", "0812345678", "+66812345678"},
		{"separators stripped", "+66", "081-234 5678", "+66812345678"},
		{"code without plus", "856", "2055512345", "+8562055512345"},
		{"empty national", "+856", "", ""},
		{"no country code", "", "0812345678", "812345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.countryCode, tt.national))
		})
	}
}
