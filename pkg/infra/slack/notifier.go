package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/types"
)

// Notifier posts run summaries to a Slack incoming webhook
type Notifier struct {
	webhookURL types.Secret
}

var _ interfaces.Notifier = (*Notifier)(nil)

// NewNotifier creates a Slack notifier
func NewNotifier(webhookURL types.Secret) *Notifier {
	return &Notifier{webhookURL: webhookURL}
}

// NotifyRun posts the aggregate status with one field per failed leg
func (n *Notifier) NotifyRun(ctx context.Context, report *model.RunReport) error {
	msg := BuildMessage(report)
	if err := slack.PostWebhookContext(ctx, n.webhookURL.Reveal(), msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook", goerr.V("run_id", report.Run.ID))
	}
	return nil
}

// BuildMessage renders the run summary
func BuildMessage(report *model.RunReport) *slack.WebhookMessage {
	color := "good"
	if report.Status == model.RunFailure {
		color = "danger"
	}

	failed := report.FailedLegs()
	published := 0
	for _, leg := range report.Legs {
		if leg.Publish.Succeeded() {
			published++
		}
	}

	fields := []slack.AttachmentField{
		{Title: "Ref", Value: report.Run.Ref, Short: true},
		{Title: "Channel", Value: string(report.Run.Channel), Short: true},
		{Title: "Legs", Value: fmt.Sprintf("%d built, %d failed", len(report.Legs)-len(failed), len(failed)), Short: true},
		{Title: "Published", Value: fmt.Sprintf("%d", published), Short: true},
	}
	for _, leg := range failed {
		reason := leg.Error
		if reason == "" {
			reason = "build " + string(leg.Build)
		}
		fields = append(fields, slack.AttachmentField{Title: leg.Target.Triple, Value: reason})
	}
	for _, leg := range report.PublishFailures() {
		fields = append(fields, slack.AttachmentField{Title: leg.Target.Triple + " (upload)", Value: leg.Publish.Error})
	}

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("%s %s: %s", report.Run.CrateName, report.Run.Ref, strings.ToUpper(string(report.Status))),
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: "run " + report.Run.ID,
			},
		},
	}
}
