package infrastructure

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/entities"
)

func restError(status int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Message: http.StatusText(status)},
	}
}

func TestWebhookMirror_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantKind  entities.DeliveryErrorKind
		retryable bool
	}{
		{"forbidden", restError(http.StatusForbidden), entities.DeliveryMissingPermission, false},
		{"not found", restError(http.StatusNotFound), entities.DeliveryTargetMissing, false},
		{"rate limited", restError(http.StatusTooManyRequests), entities.DeliveryRateLimited, true},
		{"server error", restError(http.StatusBadGateway), entities.DeliveryTransient, true},
		{"bad request", restError(http.StatusBadRequest), entities.DeliveryRejected, false},
		{"method not allowed", restError(http.StatusMethodNotAllowed), entities.DeliveryRejected, false},
		{"transport failure", errors.New("connection reset"), entities.DeliveryTransient, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mirror := NewWebhookMirror(nil, "Catcord", time.Minute)
			err := mirror.classify("chan-1", tt.err)

			var delivery *entities.DeliveryError
			require.ErrorAs(t, err, &delivery)
			assert.Equal(t, tt.wantKind, delivery.Kind)
			assert.Equal(t, tt.retryable, delivery.Retryable(),
				"kind %s retry policy", delivery.Kind)
		})
	}
}

func TestWebhookMirror_IsOwnWebhook(t *testing.T) {
	t.Parallel()

	mirror := NewWebhookMirror(nil, "Catcord", time.Minute)
	assert.False(t, mirror.IsOwnWebhook("hook-1"))

	mirror.mu.Lock()
	mirror.ownIDs["hook-1"] = true
	mirror.mu.Unlock()
	assert.True(t, mirror.IsOwnWebhook("hook-1"))
}
