package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/snapcal/registrar/internal/observability/logger"
)

// Discord sends direct messages through the Discord REST API using a
// bot token: open (or reuse) the DM channel for the user, then post
// the message.
type Discord struct {
	token   string
	apiBase string
	http    *http.Client
}

// NewDiscord builds a notifier for the given bot token. apiBase is
// overridable for tests; empty means the public API.
func NewDiscord(token, apiBase string) *Discord {
	if apiBase == "" {
		apiBase = "https://discord.com/api/v10"
	}
	return &Discord{
		token:   token,
		apiBase: strings.TrimRight(apiBase, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) NotifySuccess(ctx context.Context, externalID, providerEmail string) bool {
	return d.send(ctx, externalID, successMessage(providerEmail))
}

func (d *Discord) NotifyFailure(ctx context.Context, externalID, reason string) bool {
	return d.send(ctx, externalID, failureMessage(reason))
}

func (d *Discord) send(ctx context.Context, externalID, content string) bool {
	log := logger.From(ctx).With(logger.Component("notify.discord"), logger.ExternalID(externalID))

	if externalID == "" || externalID == "unknown" {
		log.Debug("no reachable recipient, dropping notification")
		return false
	}

	channelID, err := d.openDM(ctx, externalID)
	if err != nil {
		log.Warn("failed to open DM channel", logger.Err(err))
		return false
	}
	if err := d.postMessage(ctx, channelID, content); err != nil {
		log.Warn("failed to post message", logger.Err(err))
		return false
	}
	log.Debug("notification delivered")
	return true
}

func (d *Discord) openDM(ctx context.Context, userID string) (string, error) {
	body, _ := json.Marshal(map[string]string{"recipient_id": userID})
	var out struct {
		ID string `json:"id"`
	}
	if err := d.do(ctx, "POST", "/users/@me/channels", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("discord: empty channel id")
	}
	return out.ID, nil
}

func (d *Discord) postMessage(ctx context.Context, channelID, content string) error {
	body, _ := json.Marshal(map[string]string{"content": content})
	return d.do(ctx, "POST", "/channels/"+channelID+"/messages", body, nil)
}

func (d *Discord) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, d.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("discord: %s %s: http %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ Notifier = (*Discord)(nil)
