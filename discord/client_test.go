// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discordia-project/discordia/lib/netutil"
	"github.com/discordia-project/discordia/lib/secret"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/testutil"
)

// testClient starts server with handler and returns a client pointed
// at it with token "test-token".
func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	token, err := secret.NewFromBytes([]byte("test-token"))
	if err != nil {
		t.Fatalf("creating token buffer: %v", err)
	}
	t.Cleanup(func() { token.Close() })

	client, err := NewClient(ClientConfig{
		BaseURL:    server.URL + "/api/v10/",
		Token:      token,
		HTTPClient: server.Client(),
		Logger:     testutil.Logger(t),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, writer http.ResponseWriter, status int, value any) {
	t.Helper()
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	token, err := secret.NewFromBytes([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	defer token.Close()

	tests := []struct {
		name    string
		config  ClientConfig
		wantErr bool
	}{
		{"valid", ClientConfig{BaseURL: "https://discord.com/api/v10", Token: token}, false},
		{"missing URL", ClientConfig{Token: token}, true},
		{"missing token", ClientConfig{BaseURL: "https://discord.com/api/v10"}, true},
		{"relative URL", ClientConfig{BaseURL: "/api/v10", Token: token}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewClient(test.config)
			if (err != nil) != test.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestListChannels(t *testing.T) {
	client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodGet || request.URL.Path != "/api/v10/guilds/42/channels" {
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		}
		if got := request.Header.Get("Authorization"); got != "Bot test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := request.Header.Get("User-Agent"); got == "" {
			t.Error("missing User-Agent")
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`[
			{"id": "100", "type": 4, "name": "Log", "position": 1, "parent_id": null},
			{"id": "200", "type": 0, "name": "general", "position": 0, "parent_id": "100", "topic": null},
			{"id": "300", "type": 2, "name": "voice", "position": 2, "bitrate": 64000}
		]`))
	})

	channels, err := client.Guild(42).ListChannels(context.Background())
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(channels))
	}
	if channels[0].Type != ChannelTypeCategory || !channels[0].ParentID.IsZero() {
		t.Errorf("category = %+v", channels[0])
	}
	if channels[1].ParentID != 100 || channels[1].Topic != "" {
		t.Errorf("text channel = %+v", channels[1])
	}
	if channels[2].Bitrate != 64000 || channels[2].Type.String() != "voice" {
		t.Errorf("voice channel = %+v", channels[2])
	}
}

func TestCreateCategoryAndChannel(t *testing.T) {
	var bodies []map[string]any
	client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/api/v10/guilds/42/channels" {
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		}
		if got := request.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		bodies = append(bodies, body)
		writeJSON(t, writer, http.StatusCreated, map[string]any{
			"id": "555", "type": body["type"], "name": body["name"],
		})
	})
	guild := client.Guild(42)
	ctx := context.Background()

	category, err := guild.CreateCategory(ctx, "Log", 0)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if category.ID != 555 || category.Type != ChannelTypeCategory {
		t.Errorf("category = %+v", category)
	}

	_, err = guild.CreateChannel(ctx, CreateChannelRequest{
		Name:      "voice",
		Type:      ChannelTypeVoice,
		ParentID:  category.ID,
		Bitrate:   96000,
		UserLimit: 5,
	})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(bodies))
	}
	if bodies[0]["position"] != float64(0) || bodies[0]["type"] != float64(4) {
		t.Errorf("category body = %v", bodies[0])
	}
	if _, ok := bodies[0]["parent_id"]; ok {
		t.Errorf("category body carries parent_id: %v", bodies[0])
	}
	voice := bodies[1]
	if voice["parent_id"] != "555" || voice["bitrate"] != float64(96000) || voice["user_limit"] != float64(5) {
		t.Errorf("voice body = %v", voice)
	}
	if _, ok := voice["position"]; ok {
		t.Errorf("voice body carries unset position: %v", voice)
	}
	if _, ok := voice["nsfw"]; ok {
		t.Errorf("voice body carries nsfw: %v", voice)
	}
}

func TestChannelMessages(t *testing.T) {
	client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/v10/channels/7/messages" {
			t.Errorf("path = %s", request.URL.Path)
		}
		if got := request.URL.Query().Get("after"); got != "1000" {
			t.Errorf("after = %q, want 1000", got)
		}
		if got := request.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q, want 100", got)
		}
		writer.Write([]byte(`[
			{"id": "1002", "channel_id": "7", "content": "second", "timestamp": "2026-03-03T10:01:00.000000+00:00",
			 "edited_timestamp": null, "author": {"id": "9", "username": "alice", "discriminator": "0"}},
			{"id": "1001", "channel_id": "7", "content": "first", "timestamp": "2026-03-03T10:00:00+00:00",
			 "edited_timestamp": "2026-03-03T11:00:00+00:00", "author": {"id": "9", "username": "alice", "bot": false}}
		]`))
	})

	messages, err := client.ChannelMessages(context.Background(), 7, 1000, 0)
	if err != nil {
		t.Fatalf("ChannelMessages: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != 1001 || messages[1].ID != 1002 {
		t.Fatalf("messages not oldest first: %+v", messages)
	}
	first := messages[0]
	if first.Author.Username != "alice" || first.Author.ID != 9 {
		t.Errorf("author = %+v", first.Author)
	}
	if want := time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC); !first.EditedTimestamp.Equal(want) {
		t.Errorf("edited = %v, want %v", first.EditedTimestamp, want)
	}
	if !messages[1].EditedTimestamp.IsZero() {
		t.Errorf("null edited_timestamp decoded as %v", messages[1].EditedTimestamp)
	}
}

func TestCreateMessageReply(t *testing.T) {
	client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
		var body CreateMessageRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Content != "hello" {
			t.Errorf("content = %q", body.Content)
		}
		if body.Reference == nil || body.Reference.MessageID != 77 || body.Reference.ChannelID != 7 {
			t.Errorf("reference = %+v", body.Reference)
		}
		if body.Reference != nil && (body.Reference.FailIfNotExists == nil || *body.Reference.FailIfNotExists) {
			t.Errorf("fail_if_not_exists = %v, want false", body.Reference.FailIfNotExists)
		}
		if body.AllowedMentions == nil || len(body.AllowedMentions.Parse) != 0 {
			t.Errorf("allowed_mentions = %+v", body.AllowedMentions)
		}
		writeJSON(t, writer, http.StatusOK, map[string]any{
			"id": "78", "channel_id": "7", "content": "hello",
			"timestamp": "2026-03-03T10:00:00Z",
			"author":    map[string]any{"id": "1", "username": "discordia", "bot": true},
		})
	})

	message, err := client.Guild(42).CreateMessage(context.Background(), 7, "hello", 77)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if message.ID != 78 || !message.Author.Bot {
		t.Errorf("message = %+v", message)
	}

	if _, err := client.CreateMessage(context.Background(), 7, CreateMessageRequest{}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestAPIErrors(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
			writeJSON(t, writer, http.StatusForbidden, map[string]any{"code": 50001, "message": "Missing Access"})
		})
		_, err := client.Guild(42).ListChannels(context.Background())
		if !IsAPIError(err, CodeMissingAccess) {
			t.Fatalf("err = %v, want Missing Access", err)
		}
		var apiErr *APIError
		errors.As(err, &apiErr)
		if apiErr.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d", apiErr.StatusCode)
		}
		if netutil.IsTransient(err) {
			t.Error("403 reported as transient")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
			writeJSON(t, writer, http.StatusTooManyRequests, map[string]any{
				"message": "You are being rate limited.", "retry_after": 1.5, "global": false,
			})
		})
		_, err := client.CurrentUser(context.Background())
		if !IsRateLimited(err) {
			t.Fatalf("err = %v, want rate limited", err)
		}
		var apiErr *APIError
		errors.As(err, &apiErr)
		if apiErr.RetryAfter != 1500*time.Millisecond {
			t.Errorf("RetryAfter = %v, want 1.5s", apiErr.RetryAfter)
		}
		if !netutil.IsTransient(err) {
			t.Error("429 not reported as transient")
		}
	})

	t.Run("retry-after header wins", func(t *testing.T) {
		client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Retry-After", "3")
			writeJSON(t, writer, http.StatusTooManyRequests, map[string]any{"retry_after": 1.5})
		})
		_, err := client.CurrentUser(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.RetryAfter != 3*time.Second {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("non-JSON body", func(t *testing.T) {
		client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			writer.Write([]byte("<html>bad gateway</html>"))
		})
		_, err := client.CurrentUser(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
			t.Fatalf("err = %v, want 502 APIError", err)
		}
		if !netutil.IsTransient(err) {
			t.Error("502 not reported as transient")
		}
	})
}

func TestCurrentUser(t *testing.T) {
	client := testClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/v10/users/@me" {
			t.Errorf("path = %s", request.URL.Path)
		}
		writeJSON(t, writer, http.StatusOK, map[string]any{"id": "4194304", "username": "discordia", "bot": true})
	})
	user, err := client.Guild(42).CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.ID != snowflake.ID(4194304) || !user.Bot {
		t.Errorf("user = %+v", user)
	}
	if want := snowflake.Epoch.Add(time.Millisecond); !user.CreatedAt().Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", user.CreatedAt(), want)
	}
}
