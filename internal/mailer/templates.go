package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template data shapes mirror the product's transactional emails: board
// member invitations, admin confirmations and progress updates, thank-you
// receipts, deadline reminders, and report delivery.

type InvitationData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
	AdminName        string
	Deadline         string
	EvalLink         string
	OptOutLink       string
}

type AdminConfirmationData struct {
	AdminName        string
	CEOName          string
	OrganizationName string
	EvaluatorCount   int
	Deadline         string
	EvaluationID     string
}

type ThankYouData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
}

type ProgressData struct {
	CEOName          string
	OrganizationName string
	TotalResponded   int
	ResponseRate     int
	Remaining        int
	ThresholdMet     bool
}

type ReminderData struct {
	EvaluatorName    string
	CEOName          string
	OrganizationName string
	Deadline         string
	UrgencyMessage   string
	EvalLink         string
	OptOutLink       string
}

type LateSummaryData struct {
	AdminName        string
	CEOName          string
	OrganizationName string
	Responded        int
	Total            int
	PendingNames     string
	EvaluationID     string
}

type ReportData struct {
	AdminName        string
	CEOName          string
	OrganizationName string
	Responded        int
	Total            int
	ResponseRate     int
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "invitation"}}
<div style="max-width:600px;margin:0 auto;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="background:#0D2C54;padding:28px 36px;text-align:center;border-radius:12px 12px 0 0;">
    <div style="color:white;font-size:20px;font-weight:600;">CEO Evaluation — Board Survey</div>
  </div>
  <div style="background:white;padding:36px;border:1px solid #e2e8f0;">
    <p style="font-size:16px;color:#1e293b;">Hi {{.EvaluatorName}},</p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      {{.AdminName}} has invited you to participate in the annual performance evaluation for
      <strong style="color:#0D2C54">{{.CEOName}}</strong>, Executive Director of {{.OrganizationName}}.
    </p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      This evaluation is confidential. Your individual responses will not be shared — only
      aggregated results are included in the board report. Please complete this by
      <strong style="color:#0D2C54">{{.Deadline}}</strong>.
    </p>
    <div style="text-align:center;margin:32px 0;">
      <a href="{{.EvalLink}}" style="display:inline-block;background:#0097A9;color:white;font-size:15px;font-weight:700;padding:14px 36px;border-radius:8px;text-decoration:none;">Begin Evaluation →</a>
    </div>
    <p style="font-size:13px;color:#94a3b8;">This link is unique to you. The evaluation takes approximately 10–15 minutes.</p>
  </div>
  <div style="background:#f8fafc;border:1px solid #e2e8f0;border-top:none;border-radius:0 0 12px 12px;padding:20px 36px;text-align:center;">
    <p style="font-size:12px;color:#94a3b8;margin:0;">
      Powered by <strong style="color:#0D2C54">The Nonprofit Edge</strong> ·
      <a href="{{.OptOutLink}}" style="color:#0097A9;text-decoration:none;">Opt out of reminders</a>
    </p>
  </div>
</div>
{{end}}

{{define "admin_confirmation"}}
<div style="max-width:600px;margin:0 auto;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;">
    <div style="color:white;font-size:18px;font-weight:600;">✅ Evaluation Launched Successfully</div>
  </div>
  <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;border-radius:0 0 12px 12px;">
    <p style="font-size:15px;color:#475569;line-height:1.7;">Hi {{.AdminName}},</p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      The CEO evaluation for <strong>{{.CEOName}}</strong> at {{.OrganizationName}} has been launched.
      Invitations have been sent to <strong>{{.EvaluatorCount}} board members</strong>.
    </p>
    <table style="width:100%;border-collapse:collapse;margin:24px 0;font-size:14px;">
      <tr style="background:#f8fafc;">
        <td style="padding:10px 16px;color:#64748b;font-weight:600;border:1px solid #e2e8f0;">CEO</td>
        <td style="padding:10px 16px;color:#1e293b;border:1px solid #e2e8f0;">{{.CEOName}}</td>
      </tr>
      <tr>
        <td style="padding:10px 16px;color:#64748b;font-weight:600;border:1px solid #e2e8f0;">Evaluators</td>
        <td style="padding:10px 16px;color:#1e293b;border:1px solid #e2e8f0;">{{.EvaluatorCount}} invited</td>
      </tr>
      <tr style="background:#f8fafc;">
        <td style="padding:10px 16px;color:#64748b;font-weight:600;border:1px solid #e2e8f0;">Deadline</td>
        <td style="padding:10px 16px;color:#1e293b;border:1px solid #e2e8f0;">{{.Deadline}}</td>
      </tr>
    </table>
    <p style="font-size:13px;color:#94a3b8;">Evaluation ID: {{.EvaluationID}}</p>
  </div>
</div>
{{end}}

{{define "thank_you"}}
<div style="max-width:600px;margin:0 auto;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;text-align:center;">
    <div style="color:white;font-size:20px;font-weight:600;">Thank You</div>
  </div>
  <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;border-radius:0 0 12px 12px;">
    <p style="font-size:15px;color:#475569;line-height:1.7;">Hi {{.EvaluatorName}},</p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      Your evaluation of <strong>{{.CEOName}}</strong> at {{.OrganizationName}} has been received.
      Your responses are confidential and will only appear as part of the aggregated board report.
    </p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      Thank you for taking the time to provide thoughtful feedback — it makes a real difference
      in supporting strong nonprofit leadership.
    </p>
  </div>
</div>
{{end}}

{{define "progress"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:32px;">
  <h2 style="color:#0D2C54">Evaluation Update</h2>
  <p style="color:#475569;">You've reached <strong>{{.TotalResponded}} responses</strong> ({{.ResponseRate}}% response rate) for the {{.CEOName}} evaluation at {{.OrganizationName}}.</p>
  {{if gt .Remaining 0}}<p style="color:#475569;">{{.Remaining}} board member{{if gt .Remaining 1}}s have{{else}} has{{end}} not yet responded.</p>{{else}}<p style="color:#475569;">All invited board members have responded.</p>{{end}}
  {{if .ThresholdMet}}<p style="background:#dcfce7;padding:12px 16px;border-radius:8px;color:#15803d;font-weight:600;">✅ Minimum response threshold met — you can generate the report now.</p>{{end}}
</div>
{{end}}

{{define "reminder"}}
<div style="max-width:600px;margin:0 auto;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="background:#0D2C54;border-radius:12px 12px 0 0;padding:28px 36px;text-align:center;">
    <div style="color:white;font-size:20px;font-weight:600;">CEO Evaluation Still Needs You</div>
  </div>
  <div style="background:white;padding:36px;border:1px solid #e2e8f0;border-top:none;">
    <p style="font-size:16px;color:#1e293b;">Hi {{.EvaluatorName}},</p>
    <p style="font-size:15px;color:#475569;line-height:1.7;">
      This is a reminder that your evaluation of <strong style="color:#0D2C54">{{.CEOName}}</strong>
      at {{.OrganizationName}} is still pending.
    </p>
    <div style="background:#f8fafc;border-left:3px solid #0097A9;padding:12px 16px;margin:0 0 24px;">
      <p style="margin:0;font-size:14px;color:#1e293b;font-weight:600;">{{.UrgencyMessage}}</p>
      <p style="margin:4px 0 0;font-size:13px;color:#64748b;">Deadline: {{.Deadline}}</p>
    </div>
    <div style="text-align:center;margin:28px 0;">
      <a href="{{.EvalLink}}" style="display:inline-block;background:#0097A9;color:white;font-size:15px;font-weight:700;padding:14px 36px;border-radius:8px;text-decoration:none;">Complete Evaluation →</a>
    </div>
    <p style="font-size:12px;color:#94a3b8;"><a href="{{.OptOutLink}}" style="color:#0097A9;text-decoration:none;">Opt out of future reminders</a></p>
  </div>
</div>
{{end}}

{{define "late_summary"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:32px;color:#475569;">
  <h2 style="color:#0D2C54">Evaluation Deadline Passed</h2>
  <p>Hi {{.AdminName}},</p>
  <p>The deadline for the {{.CEOName}} CEO evaluation at {{.OrganizationName}} has passed.</p>
  <p><strong style="color:#0D2C54">{{.Responded}} of {{.Total}}</strong> board members have responded.</p>
  {{if .PendingNames}}<p>Still pending: {{.PendingNames}}</p>
  <p>You can extend the deadline or generate the report with current responses from your dashboard.</p>{{end}}
  <p style="font-size:12px;color:#94a3b8;">Evaluation ID: {{.EvaluationID}}</p>
</div>
{{end}}

{{define "report"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:32px;color:#475569;">
  <h2 style="color:#0D2C54">CEO Evaluation Report — {{.OrganizationName}}</h2>
  <p>Hi {{.AdminName}},</p>
  <p>The evaluation report for <strong>{{.CEOName}}</strong> is attached.
  {{.Responded}} of {{.Total}} invited board members responded ({{.ResponseRate}}% response rate).</p>
  <p>Individual responses remain confidential; the report contains aggregated results only.</p>
</div>
{{end}}
`))

// RenderEmail executes the named email template with the provided data.
func RenderEmail(name string, data interface{}) (string, error) {
	buf := &bytes.Buffer{}
	if err := emailTemplates.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}
