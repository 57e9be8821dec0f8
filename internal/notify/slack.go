// Package notify posts scrape results to Slack.
package notify

import (
	"errors"

	slacknotificator "github.com/sizzlei/slack-notificator"
	"github.com/slack-go/slack"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("slack bot token or channel is not configured")

const (
	colorGood   = "good"
	colorDanger = "danger"
)

// SlackNotifier sends one attachment per message to a fixed channel.
type SlackNotifier struct {
	botToken  string
	channelID string
}

func NewSlackNotifier(botToken, channelID string) (*SlackNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, ErrNotConfigured
	}
	return &SlackNotifier{botToken: botToken, channelID: channelID}, nil
}

// Attachment builds the message body; failed runs are coloured red.
func Attachment(title, text string, failed bool) slack.Attachment {
	color := colorGood
	if failed {
		color = colorDanger
	}
	return slack.Attachment{
		Color:      color,
		Title:      title,
		Text:       text,
		Footer:     "bakehouse schedule scraper",
		MarkdownIn: []string{"text"},
	}
}

func (n *SlackNotifier) Send(title, text string, failed bool) error {
	api := slacknotificator.GetClient(n.botToken)
	if err := api.SetChannel(n.channelID).SendAttachment(title, Attachment(title, text, failed)); err != nil {
		log.Errorf("[Notify] Slack 발송 실패 (채널: %s): %v", n.channelID, err)
		return err
	}
	log.Infof("[Notify] Slack 발송 성공 (채널: %s)", n.channelID)
	return nil
}
