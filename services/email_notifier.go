package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"diwan-api/models"
)

// MailSender is the SMTP capability; config.Mailer implements it.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// EmailNotifier renders Arabic (RTL) mail for workflow events.
type EmailNotifier struct {
	mailer      MailSender
	frontendURL string
}

func NewEmailNotifier(mailer MailSender, frontendURL string) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	subject, body := renderMessage(event)
	var errs []error
	for _, recipient := range event.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(recipient.Email) == "" {
			continue
		}
		html := buildFormalEmailHTML(subject, recipient.FullName, body, n.frontendURL)
		if err := n.mailer.SendMail([]string{recipient.Email}, subject, html); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %s: %w", event.Type, recipient.Email, err))
		}
	}
	return errors.Join(errs...)
}

var contentTypeLabels = map[models.ContentType]string{
	models.ContentTypeTerm:    "مصطلح",
	models.ContentTypeArticle: "مقال",
}

var statusLabels = map[models.SubmissionStatus]string{
	models.StatusDraft:                "مسودة",
	models.StatusSubmitted:            "بانتظار التدقيق المحتوائي",
	models.StatusUnderContentReview:   "قيد التدقيق المحتوائي",
	models.StatusUnderTechnicalReview: "قيد التدقيق التقني",
	models.StatusApproved:             "معتمد بانتظار النشر",
	models.StatusRejected:             "مرفوض",
	models.StatusPublished:            "منشور",
}

// renderMessage builds the subject and plain-text body shared by mail and the inbox.
func renderMessage(event Event) (string, string) {
	title := event.Submission.Title
	kind := contentTypeLabels[event.Submission.ContentType]
	if kind == "" {
		kind = "مساهمة"
	}
	status := statusLabels[event.Entry.ToStatus]

	var subject, body string
	switch event.Type {
	case EventSubmissionReceived:
		subject = "تم استلام مساهمتك - ديوان المعرفة"
		body = fmt.Sprintf("تم استلام %s «%s» بنجاح وهو الآن %s. سنبلغك بنتيجة المراجعة قريباً.", kind, title, status)
	case EventReviewRequested:
		subject = "مساهمة جديدة بانتظار المراجعة - ديوان المعرفة"
		body = fmt.Sprintf("%s «%s» بانتظار مراجعتك (الحالة: %s).", kind, title, status)
	case EventReviewDecision:
		subject = "تحديث على حالة مساهمتك - ديوان المعرفة"
		body = fmt.Sprintf("تمت مراجعة %s «%s» وأصبحت حالته: %s.", kind, title, status)
	case EventContentPublished:
		subject = "تم نشر مساهمتك - ديوان المعرفة"
		body = fmt.Sprintf("يسعدنا إبلاغك بأن %s «%s» قد نُشر على المنصة.", kind, title)
	case EventContentUnpublished:
		subject = "تم إلغاء نشر مساهمتك - ديوان المعرفة"
		body = fmt.Sprintf("تم إلغاء نشر %s «%s» وإعادته إلى المسودات.", kind, title)
	default:
		subject = "إشعار - ديوان المعرفة"
		body = fmt.Sprintf("%s «%s»: %s", kind, title, status)
	}

	if event.Entry.Comments != nil && strings.TrimSpace(*event.Entry.Comments) != "" {
		body += "\n\nملاحظات المراجع:\n" + strings.TrimSpace(*event.Entry.Comments)
	}
	return subject, body
}

func buildFormalEmailHTML(subject, recipientName, message, frontendURL string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "المساهم"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("عزيزي %s،", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")
	escapedURL := template.HTMLEscapeString(frontendURL)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:Tahoma,Arial,sans-serif;">
<div dir="rtl" style="max-width:600px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.8;color:#111827;">%s</p>
    <p style="margin:0;font-size:16px;line-height:1.8;color:#111827;word-break:break-word;">%s</p>
  </div>
  <p style="color:#666;font-size:12px;">ديوان المعرفة - منصة المعرفة العلمية العربية<br><a href="%s">%s</a></p>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage, escapedURL, escapedURL)
}

// InboxNotifier stores events as in-app notifications.
type InboxNotifier struct {
	store NotificationStore
}

func NewInboxNotifier(store NotificationStore) *InboxNotifier {
	return &InboxNotifier{store: store}
}

func (n *InboxNotifier) Notify(ctx context.Context, event Event) error {
	subject, body := renderMessage(event)
	submissionID := event.Submission.SubmissionID
	items := make([]models.Notification, 0, len(event.Recipients))
	for _, recipient := range event.Recipients {
		if recipient.UserID == 0 {
			continue
		}
		items = append(items, models.Notification{
			UserID:              recipient.UserID,
			Type:                string(event.Type),
			Title:               subject,
			Message:             body,
			RelatedSubmissionID: &submissionID,
		})
	}
	return n.store.CreateNotifications(ctx, items)
}
