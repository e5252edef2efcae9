// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/discordia-project/discordia/lib/netutil"
	"github.com/discordia-project/discordia/lib/secret"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/version"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the versioned API root (e.g. "https://discord.com/api/v10").
	BaseURL string
	// Token is the bot token. The client reads it for every request
	// but does not close it; the caller retains ownership.
	Token *secret.Buffer
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// UserAgent overrides the User-Agent header.
	UserAgent string
}

// Client is an authenticated Discord REST client.
type Client struct {
	baseURL    string
	token      *secret.Buffer
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a client from config.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("discord: BaseURL is required")
	}
	if config.Token == nil {
		return nil, fmt.Errorf("discord: Token is required")
	}
	// Request URLs are built by concatenation onto the trimmed string
	// form, so only the structure is validated here.
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("discord: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("discord: BaseURL %q is not absolute", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// CloseIdleConnections closes idle connections in the transport pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// CurrentUser returns the bot's own account.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, nil, &user); err != nil {
		return User{}, fmt.Errorf("discord: current user: %w", err)
	}
	return user, nil
}

// GuildChannels lists every channel of a guild, categories included.
func (c *Client) GuildChannels(ctx context.Context, guildID snowflake.ID) ([]Channel, error) {
	var channels []Channel
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID.String()+"/channels", nil, nil, &channels); err != nil {
		return nil, fmt.Errorf("discord: listing channels of guild %s: %w", guildID, err)
	}
	return channels, nil
}

// CreateGuildChannel creates a channel or category in a guild.
func (c *Client) CreateGuildChannel(ctx context.Context, guildID snowflake.ID, request CreateChannelRequest) (Channel, error) {
	if request.Name == "" {
		return Channel{}, fmt.Errorf("discord: channel name is required")
	}
	var channel Channel
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID.String()+"/channels", nil, request, &channel); err != nil {
		return Channel{}, fmt.Errorf("discord: creating %s %q in guild %s: %w", request.Type, request.Name, guildID, err)
	}
	c.logger.Info("created discord channel",
		"guild_id", guildID,
		"channel_id", channel.ID,
		"name", channel.Name,
		"type", channel.Type.String(),
	)
	return channel, nil
}

// ChannelMessages returns up to limit messages newer than after,
// oldest first. A zero after returns the latest messages.
func (c *Client) ChannelMessages(ctx context.Context, channelID, after snowflake.ID, limit int) ([]Message, error) {
	if limit <= 0 || limit > MaxMessagesPerPage {
		limit = MaxMessagesPerPage
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if !after.IsZero() {
		query.Set("after", after.String())
	}

	var messages []Message
	if err := c.do(ctx, http.MethodGet, "/channels/"+channelID.String()+"/messages", query, nil, &messages); err != nil {
		return nil, fmt.Errorf("discord: reading messages of channel %s: %w", channelID, err)
	}
	// The API answers newest first for "before"-style pages and oldest
	// first for "after"; sort so callers never depend on which.
	slices.SortFunc(messages, func(a, b Message) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return messages, nil
}

// CreateMessage posts a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID snowflake.ID, request CreateMessageRequest) (Message, error) {
	if request.Content == "" {
		return Message{}, fmt.Errorf("discord: message content is required")
	}
	var message Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+channelID.String()+"/messages", nil, request, &message); err != nil {
		return Message{}, fmt.Errorf("discord: sending message to channel %s: %w", channelID, err)
	}
	return message, nil
}

// do performs an authenticated JSON request. A nil requestBody sends
// no body; a nil result discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, requestBody, result any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bot "+c.token.String())
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if result == nil || len(responseBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
		return nil
	}

	return decodeAPIError(response, responseBody, method, path)
}

func decodeAPIError(response *http.Response, body []byte, method, path string) error {
	var wire struct {
		APIError
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return &APIError{
			StatusCode: response.StatusCode,
			Message: fmt.Sprintf("unexpected response from %s %s: %s",
				method, path, netutil.ErrorBody(bytes.NewReader(body))),
		}
	}
	apiErr := wire.APIError
	apiErr.StatusCode = response.StatusCode
	if response.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = netutil.RetryAfter(response.Header)
		if apiErr.RetryAfter == 0 && wire.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(wire.RetryAfter * float64(time.Second))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}
	return &apiErr
}
