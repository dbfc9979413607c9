// Resona Core
// Copyright (c) 2026 The Resona Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Resona Core.
//
// Resona Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Resona Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Resona Core.  If not, see <http://www.gnu.org/licenses/>.

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBroker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification)
	broker := NewBroker(ctx, source)

	assert.NotNil(t, broker)
	assert.NotNil(t, broker.subscribers)
	assert.Equal(t, 0, broker.nextID)
}

func TestBroker_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification)
	broker := NewBroker(ctx, source)

	ch, id := broker.Subscribe(10)

	assert.NotNil(t, ch)
	assert.Equal(t, 0, id)
	assert.Len(t, broker.subscribers, 1)

	// Subscribe again, should get incremented ID
	ch2, id2 := broker.Subscribe(20)

	assert.NotNil(t, ch2)
	assert.Equal(t, 1, id2)
	assert.Len(t, broker.subscribers, 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification)
	broker := NewBroker(ctx, source)

	ch, id := broker.Subscribe(10)

	broker.Unsubscribe(id)

	assert.Empty(t, broker.subscribers)

	// Channel should be closed
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// Unsubscribing again should be safe (no-op)
	broker.Unsubscribe(id)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification, 10)
	broker := NewBroker(ctx, source)
	broker.Start()

	sub1, _ := broker.Subscribe(10)
	sub2, _ := broker.Subscribe(10)
	sub3, _ := broker.Subscribe(10)

	notif := models.Notification{
		Method: models.NotificationPlaybackStarted,
		Params: models.TrackParams{ID: "track-1"},
	}

	source <- notif

	// All three subscribers should receive it
	received1 := <-sub1
	received2 := <-sub2
	received3 := <-sub3

	assert.Equal(t, notif.Method, received1.Method)
	assert.Equal(t, notif.Method, received2.Method)
	assert.Equal(t, notif.Method, received3.Method)
}

func TestBroker_SlowConsumerDoesNotBlockFastConsumer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification, 100)
	broker := NewBroker(ctx, source)
	broker.Start()

	// Fast consumer with room for everything
	fastConsumer, _ := broker.Subscribe(20)

	// Slow consumer with a tiny buffer that will fill up and drop
	slowConsumer, _ := broker.Subscribe(2)

	sentCount := 20
	for i := 0; i < sentCount; i++ {
		source <- models.Notification{Method: models.NotificationPlayerPause}
	}

	// The fast consumer receives every notification.
	received := 0
	timeout := time.After(time.Second)
	for received < sentCount {
		select {
		case <-fastConsumer:
			received++
		case <-timeout:
			t.Fatalf("fast consumer stalled after %d notifications", received)
		}
	}
	assert.Equal(t, sentCount, received)

	// The slow consumer got at most its buffer; the rest were dropped
	// rather than blocking the broadcast loop.
	assert.LessOrEqual(t, len(slowConsumer), 2)
}

func TestBroker_ContextCancelClosesSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	broker := NewBroker(ctx, source)
	broker.Start()

	ch, _ := broker.Subscribe(10)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed on context cancel")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after context cancel")
	}
}

func TestBroker_SourceCloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification, 1)
	broker := NewBroker(ctx, source)
	broker.Start()

	ch, _ := broker.Subscribe(10)

	source <- models.Notification{Method: models.NotificationQuotaReset}
	notif, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, models.NotificationQuotaReset, notif.Method)

	close(source)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed when source closes")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after source close")
	}
}

func TestBroker_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan models.Notification)
	broker := NewBroker(ctx, source)
	broker.Start()

	ch, id := broker.Subscribe(10)

	broker.Stop()
	broker.Stop()

	_, ok := <-ch
	assert.False(t, ok)

	// Unsubscribe after stop is a safe no-op.
	broker.Unsubscribe(id)
}
