package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToRegisteredHandler(t *testing.T) {
	d := NewDispatcher(1, 8)
	var mu sync.Mutex
	var got []string

	d.Register(EventCategorizeByKeyword, func(ctx context.Context, payload json.RawMessage) error {
		var p CategorizeByKeywordPayload
		if err := Decode(payload, &p); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, p.KeywordID)
		mu.Unlock()
		return nil
	})
	d.Start(context.Background())

	for _, id := range []string{"k1", "k2", "k3"} {
		event, err := NewEvent(EventCategorizeByKeyword, CategorizeByKeywordPayload{
			UserID: "u1", KeywordID: id, Keyword: "coffee", CategoryID: "sys-food",
		})
		require.NoError(t, err)
		require.NoError(t, d.Send(context.Background(), event))
	}
	d.Stop()

	assert.ElementsMatch(t, []string{"k1", "k2", "k3"}, got)
}

func TestDispatcherSurvivesHandlerPanicAndError(t *testing.T) {
	d := NewDispatcher(1, 8)
	delivered := make(chan string, 3)

	d.Register("boom", func(ctx context.Context, payload json.RawMessage) error {
		delivered <- "boom"
		panic("handler exploded")
	})
	d.Register("fail", func(ctx context.Context, payload json.RawMessage) error {
		delivered <- "fail"
		return errors.New("job failed")
	})
	d.Register("ok", func(ctx context.Context, payload json.RawMessage) error {
		delivered <- "ok"
		return nil
	})
	d.Start(context.Background())

	for _, name := range []string{"boom", "fail", "ok"} {
		require.NoError(t, d.Send(context.Background(), Event{Name: name, Payload: json.RawMessage(`{}`)}))
	}
	d.Stop()

	var seen []string
	close(delivered)
	for name := range delivered {
		seen = append(seen, name)
	}
	// The panic and the error must not stop later deliveries
	assert.Equal(t, []string{"boom", "fail", "ok"}, seen)
}

func TestSendFailsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(1, 1)
	// Not started: nothing drains the channel
	require.NoError(t, d.Send(context.Background(), Event{Name: "x"}))
	err := d.Send(context.Background(), Event{Name: "y"})
	assert.Error(t, err)
}

func TestUnknownEventIsDropped(t *testing.T) {
	d := NewDispatcher(1, 4)
	d.Start(context.Background())
	require.NoError(t, d.Send(context.Background(), Event{Name: "nobody/listens", Payload: json.RawMessage(`{}`)}))

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not drain unknown event")
	}
}
