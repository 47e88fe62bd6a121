package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardbook/internal/notify"
)

type flakyNotifier struct {
	failures int
	calls    int
}

func (f *flakyNotifier) Publish(context.Context, notify.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestResilientFallsBackAndRecovers(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	primary := &flakyNotifier{failures: 4}
	fallback := notify.NewCapture()
	resilient := notify.NewResilient(primary, fallback, logger)

	event := notify.Event{Kind: notify.KindMandatoryFeeActivated, FeeType: "sanitation"}

	// While the primary is down every event lands on the fallback.
	for i := 0; i < 4; i++ {
		require.NoError(t, resilient.Publish(ctx, event))
	}
	assert.Len(t, fallback.Events(), 4)

	// Once the primary recovers the fallback stops receiving.
	require.NoError(t, resilient.Publish(ctx, event))
	require.NoError(t, resilient.Publish(ctx, event))
	assert.Len(t, fallback.Events(), 4)
	assert.Equal(t, 6, primary.calls)
}
