package mpesa

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/internal/testutil/fixtures"
)

func TestGenerateTimestamp(t *testing.T) {
	ts := GenerateTimestamp(time.Date(2024, 2, 29, 23, 59, 1, 0, time.UTC))
	assert.Equal(t, "20240229235901", ts)
	assert.True(t, IsValidTimestamp(ts))
	assert.True(t, IsValidTimestamp(NewTimestamp()))
}

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		ts    string
		valid bool
	}{
		{"20191219102115", true},
		{"20230231000000", true}, // day only range checked
		{"20191319102115", false},
		{"20191200102115", false},
		{"20191232102115", false},
		{"20191219242115", false},
		{"20191219106015", false},
		{"20191219102160", false},
		{"2019121910211", false},
		{"201912191021150", false},
		{"2019121910211a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTimestamp(tt.ts))
		})
	}
}

func TestGeneratePassword_RoundTrip(t *testing.T) {
	ts := "20191219102115"
	password := GeneratePassword(fixtures.SandboxShortCode, fixtures.SandboxPasskey, ts)

	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, fixtures.SandboxShortCode+fixtures.SandboxPasskey+ts, string(decoded))
	assert.NotContains(t, password, "\n")
	assert.Equal(t, password, GeneratePassword(fixtures.SandboxShortCode, fixtures.SandboxPasskey, ts))
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "leading zero", input: "0712345678", want: "254712345678"},
		{name: "plus prefix", input: "+254712345678", want: "254712345678"},
		{name: "already normalized", input: "254712345678", want: "254712345678"},
		{name: "bare nine digits", input: "712345678", want: "254712345678"},
		{name: "separators", input: "0712 345-678", want: "254712345678"},
		{name: "airtel prefix", input: "0110345678", want: "254110345678"},
		{name: "seven digits", input: "1234567", wantErr: true},
		{name: "too long", input: "25471234567899", wantErr: true},
		{name: "foreign", input: "+14155550100", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatPhoneNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
