package notify

import (
	"fmt"
	"html"
	"time"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// Subject of every expiry reminder.
const Subject = "⚠️ Thông báo quan trọng: Thẻ hướng dẫn viên sắp hết hạn"

const defaultGreeting = "bạn"

// Vietnam does not observe daylight saving time.
var ict = time.FixedZone("ICT", 7*60*60)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}

// FormatDate renders t as d/m/yyyy in Vietnam time.
func FormatDate(t time.Time) string {
	local := t.In(ict)
	return fmt.Sprintf("%d/%d/%d", local.Day(), int(local.Month()), local.Year())
}

// Compose renders the reminder for profile.
func Compose(p directory.GuideProfile, daysLeft int) Message {
	name := p.FullName
	if name == "" {
		name = defaultGreeting
	}
	date := ""
	if p.ExpiryDate != nil {
		date = FormatDate(*p.ExpiryDate)
	}

	text := fmt.Sprintf("Xin chào %s,\n\n"+
		"Thẻ hướng dẫn viên của bạn sẽ hết hạn vào ngày %s. "+
		"Vui lòng chuẩn bị gia hạn để tránh gián đoạn công việc.\n\n"+
		"Trân trọng,\nHệ thống Sổ Tay Cho HDV", name, date)

	body := fmt.Sprintf(htmlBody, html.EscapeString(name), date, daysLeft)

	return Message{
		To:      p.Email,
		Subject: Subject,
		Text:    text,
		HTML:    body,
		Headers: map[string]string{
			"X-Priority":        "1",
			"X-MSMail-Priority": "High",
			"Importance":        "high",
		},
	}
}

const htmlBody = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #fef3c7; border-left: 4px solid #f59e0b; padding: 16px; margin-bottom: 20px;">
    <h2 style="color: #92400e; margin: 0;">⚠️ Thông báo quan trọng</h2>
  </div>
  <p>Xin chào <strong>%s</strong>,</p>
  <p style="font-size: 16px;">Thẻ hướng dẫn viên của bạn sẽ hết hạn vào ngày <strong style="color: #dc2626;">%s</strong> (còn <strong>%d ngày</strong>).</p>
  <div style="background-color: #fee2e2; border-radius: 8px; padding: 12px; margin: 20px 0;">
    <p style="margin: 0; color: #991b1b;">📋 Vui lòng chuẩn bị gia hạn sớm để tránh gián đoạn công việc.</p>
  </div>
  <p>Trân trọng,<br/><strong>Hệ thống Sổ Tay Cho HDV</strong></p>
</div>`
