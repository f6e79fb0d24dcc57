package wire_test

import (
	"testing"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Notification
		want string
	}{
		{
			name: "pick feedback",
			in:   domain.Succeeded(domain.ChannelFeedback, "Successfully picked apple"),
			want: "success true; status_code 0; message: Successfully picked apple",
		},
		{
			name: "handoff on empty",
			in:   domain.Failed(domain.ChannelFeedback, domain.CodeNotHolding, "No object to hand off"),
			want: "success false; status_code 1; message: No object to hand off",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wire.FormatStatus(tt.in))
		})
	}
}

func TestParseStatus(t *testing.T) {
	n, err := wire.ParseStatus("success false; status_code 1; message: No object to hand off\n")
	require.NoError(t, err)
	assert.False(t, n.Success)
	assert.Equal(t, 1, n.Code)
	assert.Equal(t, "No object to hand off", n.Message)
}

func TestParseStatus_MessageWithSeparators(t *testing.T) {
	original := domain.Succeeded(domain.ChannelObjectAcquired, "Object bolt; M4 acquired")

	n, err := wire.ParseStatus(wire.FormatStatus(original))
	require.NoError(t, err)
	assert.Equal(t, original.Message, n.Message)
	assert.True(t, n.Success)
	assert.Equal(t, 0, n.Code)
}

func TestParseStatus_Malformed(t *testing.T) {
	lines := []string{
		"",
		"picked apple",
		"success yes; status_code 0; message: x",
		"success true; code 0; message: x",
		"success true; status_code zero; message: x",
		"success true; status_code 0; text: x",
	}
	for _, line := range lines {
		_, err := wire.ParseStatus(line)
		assert.ErrorIs(t, err, wire.ErrMalformedStatus, "line %q", line)
	}
}
