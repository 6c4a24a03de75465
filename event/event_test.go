// Copyright 2026 DecentraMind Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/event"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func statusEvent(id string) event.Event {
	return event.NewEvent(
		event.ProposalStatusEventType,
		event.ProposalStatusEvent{
			ProposalID: id,
			From:       governance.StatusDiscussion,
			To:         governance.StatusVoting,
		},
	)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.ProposalStatusEventType)
	eb.Publish(statusEvent("p1"))
	evt := receive(t, subCh)
	data, ok := evt.Data.(event.ProposalStatusEvent)
	require.True(t, ok, "unexpected event data type %T", evt.Data)
	assert.Equal(t, "p1", data.ProposalID)
	assert.Equal(t, governance.StatusVoting, data.To)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(event.ProposalStatusEventType)
	_, sub2Ch := eb.Subscribe(event.ProposalStatusEventType)
	_, otherCh := eb.Subscribe(event.VoteCastEventType)
	eb.Publish(statusEvent("p1"))
	assert.Equal(t, event.ProposalStatusEventType, receive(t, sub1Ch).Type)
	assert.Equal(t, event.ProposalStatusEventType, receive(t, sub2Ch).Type)
	select {
	case <-otherCh:
		t.Fatal("subscriber of another type received the event")
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.ProposalStatusEventType)
	eb.Unsubscribe(event.ProposalStatusEventType, subId)
	eb.Publish(statusEvent("p1"))
	_, ok := <-subCh
	assert.False(t, ok, "channel should be closed after Unsubscribe")
	// unknown ids are ignored
	eb.Unsubscribe(event.ProposalStatusEventType, subId+100)
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	eb.SubscribeFunc(event.VoteCastEventType, func(evt event.Event) {
		count.Add(1)
		wg.Done()
	})
	for range 3 {
		eb.Publish(event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{ProposalID: "p1"}))
	}
	wg.Wait()
	eb.Stop()
	assert.Equal(t, int32(3), count.Load())
}

func TestEventBusHandlerPanic(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	done := make(chan struct{}, 2)
	eb.SubscribeFunc(event.VoteCastEventType, func(evt event.Event) {
		done <- struct{}{}
		panic("boom")
	})
	eb.Publish(event.NewEvent(event.VoteCastEventType, nil))
	eb.Publish(event.NewEvent(event.VoteCastEventType, nil))
	for range 2 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler did not survive a panic")
		}
	}
	eb.Stop()
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.TreasuryTxEventType)
	require.True(t, eb.PublishAsync(event.NewEvent(
		event.TreasuryTxEventType,
		event.TreasuryTxEvent{TransactionID: "t1", Status: governance.TxStatusPending},
	)))
	evt := receive(t, subCh)
	assert.Equal(t, "t1", evt.Data.(event.TreasuryTxEvent).TransactionID)
	eb.Stop()
	assert.False(t, eb.PublishAsync(statusEvent("p1")))
	_, ok := <-subCh
	assert.False(t, ok, "Stop should close subscriber channels")
}

func TestEventBusSlowSubscriberDoesNotBlock(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, _ = eb.Subscribe(event.ProposalStatusEventType)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range event.EventQueueSize + 5 {
			eb.Publish(statusEvent("p1"))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	dropped, err := testutil.GatherAndCount(reg, "govengine_event_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	expected := fmt.Sprintf(`
# HELP govengine_event_published_total total events published by type
# TYPE govengine_event_published_total counter
govengine_event_published_total{type="governance.proposal.status"} %d
`, event.EventQueueSize+5)
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"govengine_event_published_total",
	))
}

func TestEventBusStopIdempotent(t *testing.T) {
	eb := event.NewEventBus(prometheus.NewRegistry(), nil)
	eb.Stop()
	eb.Stop()
}
