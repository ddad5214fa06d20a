package importer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Veraticus/expenses/internal/model"
)

// MessageSource provides inbound text messages to import.
type MessageSource interface {
	Messages(ctx context.Context) ([]model.Message, error)
}

// StaticSource serves a fixed list of messages.
type StaticSource []model.Message

// Messages returns a copy of the list.
func (s StaticSource) Messages(_ context.Context) ([]model.Message, error) {
	return append([]model.Message(nil), s...), nil
}

// smsInboxType marks received messages in an SMS Backup & Restore export.
const smsInboxType = "1"

// BackupFile reads messages from an "SMS Backup & Restore" XML export.
type BackupFile struct {
	Location *time.Location
	Path     string
}

// Messages parses the export at Path.
func (b BackupFile) Messages(ctx context.Context) ([]model.Message, error) {
	f, err := os.Open(b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sms backup: %w", err)
	}
	defer func() { _ = f.Close() }()

	messages, err := ParseBackup(ctx, f, b.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", b.Path, err)
	}
	return messages, nil
}

type backupSMS struct {
	Address  string `xml:"address,attr"`
	Body     string `xml:"body,attr"`
	Type     string `xml:"type,attr"`
	Date     int64  `xml:"date,attr"`
	DateSent int64  `xml:"date_sent,attr"`
}

// ParseBackup decodes the inbox messages of an SMS backup. Timestamps are
// epoch milliseconds; date_sent is used when set, date otherwise.
func ParseBackup(ctx context.Context, r io.Reader, loc *time.Location) ([]model.Message, error) {
	if loc == nil {
		loc = time.Local
	}

	decoder := xml.NewDecoder(r)
	var messages []model.Message
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "sms" {
			continue
		}

		var sms backupSMS
		if err := decoder.DecodeElement(&sms, &start); err != nil {
			return nil, fmt.Errorf("invalid sms element: %w", err)
		}
		if sms.Type != smsInboxType {
			continue
		}

		sent := sms.DateSent
		if sent == 0 {
			sent = sms.Date
		}
		messages = append(messages, model.Message{
			Sent:   time.UnixMilli(sent).In(loc),
			Sender: sms.Address,
			Body:   sms.Body,
		})
	}
	return messages, nil
}

// String describes the source for logs.
func (b BackupFile) String() string {
	return "sms backup " + strconv.Quote(b.Path)
}
