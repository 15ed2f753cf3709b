package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	jobs []any
	err  error
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func TestQueueNotifier_PublishesJob(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewQueueNotifier(pub)

	require.NoError(t, n.Send(context.Background(), "a@x.com", "Reset", "body"))
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, EmailJob{To: "a@x.com", Subject: "Reset", Text: "body"}, pub.jobs[0])
}

func TestQueueNotifier_PublishFailureSurfaces(t *testing.T) {
	boom := errors.New("channel closed")
	n := NewQueueNotifier(&recordingPublisher{err: boom})

	err := n.Send(context.Background(), "a@x.com", "Reset", "body")
	assert.ErrorIs(t, err, boom)
}

func TestLogNotifier_DoesNotLogBody(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	require.NoError(t, LogNotifier{Logger: logger}.Send(context.Background(), "a@x.com", "Reset", "secret-token"))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "a@x.com", entry.Data["to"])
	assert.NotContains(t, entry.Message, "secret-token")
	for _, v := range entry.Data {
		assert.NotEqual(t, "secret-token", v)
	}
}
