package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"time"
)

// Notification channels. Alerts go to the on-call webhook, info messages to
// the status channel. Either webhook may be left unset, in which case the
// notification is dropped silently.
const (
	AlertNotification = 0
	InfoNotification  = 1
)

var slackHTTPClient = &http.Client{Timeout: 10 * time.Second}

type slackMessage struct {
	Text string `json:"text"`
}

// SendSlackNotification posts msg to the Slack incoming webhook configured
// for the given notification type.
func SendSlackNotification(msg string, notiType int) error {
	var webhookURL string
	switch notiType {
	case AlertNotification:
		webhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	case InfoNotification:
		webhookURL = os.Getenv("INFO_WEBHOOK_URL")
	default:
		return fmt.Errorf("unsupported notification type %v", notiType)
	}
	if webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(slackMessage{Text: msg})
	if err != nil {
		return err
	}
	resp, err := slackHTTPClient.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := ioutil.ReadAll(resp.Body)
	if string(respBody) != "ok" {
		return fmt.Errorf("non-ok response returned from Slack: %s", respBody)
	}
	return nil
}
