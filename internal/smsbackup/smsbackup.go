// Package smsbackup reads "SMS Backup & Restore" XML exports.
package smsbackup

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"smsledger/internal/models"
)

// sms is one <sms> element of a backup
type sms struct {
	Address string `xml:"address,attr"`
	Body    string `xml:"body,attr"`
	Date    string `xml:"date,attr"` // epoch millis
	Type    string `xml:"type,attr"` // 1 = inbox, 2 = sent
}

// inboxType is the message type for received messages
const inboxType = "1"

// Filter narrows which messages are returned
type Filter struct {
	Since  time.Time // zero means no lower bound
	Sender string    // case-insensitive substring, empty means any
}

func (f Filter) match(m models.RawMessage) bool {
	if !f.Since.IsZero() && m.Timestamp.Before(f.Since) {
		return false
	}
	if f.Sender != "" && !strings.Contains(strings.ToUpper(m.Sender), strings.ToUpper(f.Sender)) {
		return false
	}
	return true
}

// ReadFile reads received messages from the backup at path
func ReadFile(path string, f Filter) ([]models.RawMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer file.Close()
	return Read(file, f)
}

// Read decodes <sms> elements one at a time so large backups are not held in
// memory twice. Sent messages and rows with an unreadable date are skipped.
func Read(r io.Reader, f Filter) ([]models.RawMessage, error) {
	dec := xml.NewDecoder(r)
	var out []models.RawMessage

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode backup: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "sms" {
			continue
		}

		var s sms
		if err := dec.DecodeElement(&s, &start); err != nil {
			return nil, fmt.Errorf("decode sms: %w", err)
		}
		if s.Type != "" && s.Type != inboxType {
			continue
		}

		ms, err := strconv.ParseInt(strings.TrimSpace(s.Date), 10, 64)
		if err != nil {
			continue
		}

		msg := models.RawMessage{
			Body:      s.Body,
			Sender:    strings.TrimSpace(s.Address),
			Timestamp: time.UnixMilli(ms),
		}
		if f.match(msg) {
			out = append(out, msg)
		}
	}
	return out, nil
}
