package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// mailSender is the subset of *gomail.Dialer used to deliver e-mail
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	mailer mailSender
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		mailer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// Enabled reports whether any channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a report snapshot via configured notification channels
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	subject := fmt.Sprintf("Mentions Report - %s (%d mentions)", report.Title, report.TotalMentions)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	return s.dispatch(ctx, "report", buildReportTeamsMessage(report), subject, buildReportText(report), htmlBody)
}

// SendAlert sends an alert about freshly collected mentions
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	return s.dispatch(ctx, "alert", buildAlertTeamsMessage(alert), alert.Title, buildAlertText(alert), "")
}

func (s *Service) dispatch(ctx context.Context, kind string, teams *TeamsMessage, subject, text, html string) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(ctx, teams); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", kind)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(subject, text, html); err != nil {
			logrus.Errorf("Failed to send email %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func reportFacts(report *models.Report) []TeamsFact {
	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.TotalMentions)},
		{Name: "Positive Mentions", Value: fmt.Sprintf("%d", report.PositiveCount)},
		{Name: "Neutral Mentions", Value: fmt.Sprintf("%d", report.NeutralCount)},
		{Name: "Negative Mentions", Value: fmt.Sprintf("%d", report.NegativeCount)},
		{Name: "Date Range", Value: report.DateRange},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	if report.Filters != "" && report.Filters != "{}" {
		facts = append(facts, TeamsFact{Name: "Filters", Value: report.Filters})
	}
	return facts
}

func buildReportTeamsMessage(report *models.Report) *TeamsMessage {
	return &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Mentions Report - %s", report.Title),
		Text:    fmt.Sprintf("Report #%d covers %d mentions", report.ID, report.TotalMentions),
		Sections: []TeamsSection{{
			ActivityTitle: "Summary",
			Facts:         reportFacts(report),
			Markdown:      true,
		}},
	}
}

func buildAlertTeamsMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   alert.Title,
		Text:    alert.Message,
	}

	if len(alert.Mentions) > 0 {
		var lines []string
		for i, mention := range alert.Mentions {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("**%s** - %s", mention.Source, truncate(mention.Content, 200)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Mentions",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Mentions Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #3B82F6; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .positive { color: #107c10; }
        .negative { color: #d13438; }
        .neutral { color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>Report #{{.ID}} generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Date Range:</strong> {{.DateRange}}</p>
        <p><strong>Total Mentions:</strong> {{.TotalMentions}}</p>
        <p class="positive"><strong>Positive:</strong> {{.PositiveCount}}</p>
        <p class="neutral"><strong>Neutral:</strong> {{.NeutralCount}}</p>
        <p class="negative"><strong>Negative:</strong> {{.NegativeCount}}</p>
    </div>

    <hr>
    <p><small>This report was generated automatically by the Mentions Dashboard.</small></p>
</body>
</html>
`

var emailHTML = template.Must(template.New("email").Parse(emailTemplate))

func buildEmailHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildReportText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Mentions Report - %s\n", report.Title))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	for _, fact := range reportFacts(report) {
		text.WriteString(fmt.Sprintf("%s: %s\n", fact.Name, fact.Value))
	}

	text.WriteString("\n---\nThis report was generated automatically by the Mentions Dashboard.\n")
	return text.String()
}

func buildAlertText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(alert.Title + "\n\n")
	text.WriteString(alert.Message + "\n")

	for i, mention := range alert.Mentions {
		text.WriteString(fmt.Sprintf("\n%d. [%s] %s\n", i+1, mention.Source, truncate(mention.Content, 200)))
		if mention.SourceURL != nil {
			text.WriteString(fmt.Sprintf("   URL: %s\n", *mention.SourceURL))
		}
	}

	return text.String()
}

// truncate keeps the first length runes of s
func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
