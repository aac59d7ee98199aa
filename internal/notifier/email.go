package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

// EmailConfig is the SMTP relay used for email deliveries.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers notifications over SMTP. Messages with a chart go out
// as multipart/mixed with the PNG attached.
type EmailSender struct {
	cfg EmailConfig

	// send exists so tests can capture the wire payload.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, send: smtp.SendMail}
}

func (e *EmailSender) Send(ctx context.Context, rec types.TriggerRecord, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := buildMIME(e.cfg.From, rec.Contact, msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	if err := e.send(addr, auth, e.cfg.From, []string{rec.Contact}, payload); err != nil {
		return errors.Wrapf(err, "could not send email to %s", rec.Contact)
	}

	log.Debugf("email delivered to %s via %s", rec.Contact, addr)
	return nil
}

func buildMIME(from, to string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Chart) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.Text)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not build email body")
	}
	if _, err := textPart.Write([]byte(msg.Text)); err != nil {
		return nil, errors.Wrap(err, "could not build email body")
	}

	chartPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"image/png"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {`attachment; filename="chart.png"`},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not attach chart")
	}
	encoder := base64.NewEncoder(base64.StdEncoding, chartPart)
	if _, err := encoder.Write(msg.Chart); err != nil {
		return nil, errors.Wrap(err, "could not attach chart")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "could not attach chart")
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "could not finish email payload")
	}
	return buf.Bytes(), nil
}
