// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ChainSafe/exexd/internal/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(ctx context.Context, t *testing.T,
	handler http.HandlerFunc) Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
	})

	wsAddr := strings.Replace(srv.URL, "http", "ws", 1)
	testEndpoints := []*Endpoint{{
		Endpoint:  wsAddr,
		Verbosity: 0,
	}}

	logger := log.New(log.SetWriter(io.Discard))
	const telemetryEnabled = true

	return BootstrapMailer(ctx, testEndpoints, telemetryEnabled, logger)
}

func TestMailer_SendMulti(t *testing.T) {
	t.Parallel()

	messages := []Message{
		NewExtensionRegisteredTM("indexer", 128),
		NewFinishedHeightTM("42"),
		NewExtensionStoppedTM("indexer", "removed", ""),
	}

	expectedTypes := []string{
		extensionRegisteredMsg,
		finishedHeightMsg,
		extensionStoppedMsg,
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	serverHandlerDone := make(chan struct{})
	actual := make([]map[string]interface{}, 0, len(messages))

	handler := func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		defer func() {
			wsCloseErr := c.Close()
			assert.NoError(t, wsCloseErr)
			close(serverHandlerDone)
		}()

		for idx := 0; idx < len(messages); idx++ {
			_, msg, err := c.ReadMessage()
			require.NoError(t, err)

			decoded := make(map[string]interface{})
			err = json.Unmarshal(msg, &decoded)
			require.NoError(t, err)
			actual = append(actual, decoded)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newTestMailer(ctx, t, handler)

	for _, message := range messages {
		mailer.SendMessage(message)
	}

	select {
	case <-serverHandlerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("did not receive all telemetry messages")
	}

	actualTypes := make([]string, 0, len(actual))
	for _, decoded := range actual {
		require.Contains(t, decoded, "ts")
		actualTypes = append(actualTypes, decoded["msg"].(string))
	}

	sort.Strings(actualTypes)
	sortedExpected := make([]string, len(expectedTypes))
	copy(sortedExpected, expectedTypes)
	sort.Strings(sortedExpected)
	assert.Equal(t, sortedExpected, actualTypes)
}

func TestMailer_disabled(t *testing.T) {
	t.Parallel()

	logger := log.New(log.SetWriter(io.Discard))
	client := BootstrapMailer(context.Background(), nil, false, logger)

	_, isNoop := client.(*Noop)
	assert.True(t, isNoop)

	// must not panic nor block
	client.SendMessage(NewFinishedHeightTM("1"))
}
