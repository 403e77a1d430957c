package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBilling records MarkOverdue calls.
type stubBilling struct {
	services.BillingService
	asOf []time.Time
	err  error
}

func (s *stubBilling) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	s.asOf = append(s.asOf, asOf)
	return 3, s.err
}

func TestAdd_InvalidSpec(t *testing.T) {
	s := New(logger.Nop())
	err := s.Add("bad", "every tuesday", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestRun_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	s := New(logger.NewWithOptions(logger.Options{Env: "production", Level: "debug", Out: &buf}))

	s.run("ok", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	assert.Contains(t, buf.String(), "Job finished")

	buf.Reset()
	s.run("broken", func(context.Context) error { return errors.New("boom") })
	assert.Contains(t, buf.String(), "Job failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestMarkOverdueJob(t *testing.T) {
	billing := &stubBilling{}
	now := time.Date(2024, time.July, 20, 6, 0, 0, 0, time.UTC)

	require.NoError(t, MarkOverdueJob(billing, func() time.Time { return now })(context.Background()))
	require.Len(t, billing.asOf, 1)
	assert.Equal(t, now.Format(models.DateLayout), billing.asOf[0].Format(models.DateLayout))

	billing.err = errors.New("db down")
	assert.Error(t, MarkOverdueJob(billing, time.Now)(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.Add("noop", "0 6 * * *", func(context.Context) error { return nil }))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestFields(t *testing.T) {
	assert.Nil(t, fields(nil))
	assert.Equal(t, map[string]interface{}{"entry": 1, "next": "x"}, fields([]interface{}{"entry", 1, "next", "x", "dangling"}))
}
