// Command emailforwarder polls an IMAP mailbox for alert emails (e.g. from
// Splunk) and forwards them to Solace's webhook API as structured
// payloads for the email normalizer to process — a Go rewrite of
// original_source/scripts/email_forwarder/forwarder.py in the teacher's
// ticker-driven worker idiom (cmd/worker/main.go). spec.md §1 names this
// sidecar as an out-of-scope external collaborator, specified only at its
// interface boundary: it never touches the database, it only POSTs.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"solace/pkg/logging"
)

type forwarderConfig struct {
	imapHost      string
	imapPort      int
	imapUser      string
	imapPassword  string
	imapUseSSL    bool
	imapFolder    string
	subjectRegex  *regexp.Regexp
	solaceURL     string
	solaceAPIKey  string
	pollInterval  time.Duration
	markAsRead    bool
	maxPerPoll    uint32
}

// emailPayload matches the teacher's original_source parse_email() output
// and the shape internal/normalize's Splunk email normalizer expects.
type emailPayload struct {
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func loadConfig() forwarderConfig {
	port, _ := strconv.Atoi(envOr("IMAP_PORT", "993"))
	interval, _ := strconv.Atoi(envOr("POLL_INTERVAL", "60"))
	maxPerPoll, _ := strconv.Atoi(envOr("MAX_EMAILS_PER_POLL", "50"))
	pattern := envOr("SUBJECT_PATTERN", "Splunk Alert")

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = nil
	}

	return forwarderConfig{
		imapHost:     envOr("IMAP_HOST", ""),
		imapPort:     port,
		imapUser:     envOr("IMAP_USER", ""),
		imapPassword: envOr("IMAP_PASSWORD", ""),
		imapUseSSL:   envOr("IMAP_USE_SSL", "true") == "true",
		imapFolder:   envOr("IMAP_FOLDER", "INBOX"),
		subjectRegex: re,
		solaceURL:    envOr("SOLACE_URL", "http://localhost:8080"),
		solaceAPIKey: envOr("SOLACE_API_KEY", ""),
		pollInterval: time.Duration(interval) * time.Second,
		markAsRead:   envOr("MARK_AS_READ", "true") == "true",
		maxPerPoll:   uint32(maxPerPoll),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()
	if cfg.imapHost == "" || cfg.imapUser == "" || cfg.imapPassword == "" {
		logging.L().Fatal("IMAP_HOST, IMAP_USER and IMAP_PASSWORD are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logging.L().WithFields(map[string]interface{}{
		"imap_host":     cfg.imapHost,
		"imap_folder":   cfg.imapFolder,
		"poll_interval": cfg.pollInterval,
	}).Info("solace email forwarder starting")

	ticker := time.NewTicker(cfg.pollInterval)
	defer ticker.Stop()

	pollOnce(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			logging.L().Info("forwarder stopped")
			cancel()
			return
		case <-ticker.C:
			pollOnce(cfg)
		}
	}
}

// pollOnce runs a single IMAP poll cycle: connect, search unseen, forward
// matching subjects, mark processed, logout. Mirrors poll_once() in the
// Python original, including its "log and move on" error handling — a
// failed poll never crashes the process, it just retries next tick.
func pollOnce(cfg forwarderConfig) {
	imapClient, err := dialIMAP(cfg)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Error("imap connect failed")
		return
	}
	defer imapClient.Logout()

	mbox, err := imapClient.Select(cfg.imapFolder, false)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Error("imap select failed")
		return
	}
	if mbox.Messages == 0 {
		return
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := imapClient.UidSearch(criteria)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Error("imap search failed")
		return
	}
	if len(uids) == 0 {
		return
	}
	if uint32(len(uids)) > cfg.maxPerPoll {
		uids = uids[:cfg.maxPerPoll]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(uids))
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- imapClient.UidFetch(seqset, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	forwarded := 0
	var processedUIDs []uint32
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		payload, err := parseEmail(body)
		if err != nil {
			logging.L().WithFields(map[string]interface{}{"error": err}).Warn("failed to parse email")
			continue
		}
		if cfg.subjectRegex != nil && !cfg.subjectRegex.MatchString(payload.Subject) &&
			!strings.Contains(strings.ToLower(payload.Subject), strings.ToLower(cfg.subjectRegex.String())) {
			continue
		}

		if err := forwardToSolace(cfg, payload); err != nil {
			logging.L().WithFields(map[string]interface{}{"error": err, "subject": payload.Subject}).Warn("failed to forward email, will retry next poll")
			continue
		}
		forwarded++
		if msg.Uid != 0 {
			processedUIDs = append(processedUIDs, msg.Uid)
		}
	}
	if err := <-fetchDone; err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Error("imap fetch failed")
	}

	if cfg.markAsRead && len(processedUIDs) > 0 {
		markSet := new(imap.SeqSet)
		markSet.AddNum(processedUIDs...)
		flags := []interface{}{imap.SeenFlag}
		if err := imapClient.UidStore(markSet, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			logging.L().WithFields(map[string]interface{}{"error": err}).Warn("failed to mark emails as read")
		}
	}

	if forwarded > 0 {
		logging.L().WithFields(map[string]interface{}{"forwarded": forwarded}).Info("poll complete")
	}
}

func dialIMAP(cfg forwarderConfig) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.imapHost, cfg.imapPort)
	var c *client.Client
	var err error
	if cfg.imapUseSSL {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Login(cfg.imapUser, cfg.imapPassword); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// parseEmail extracts subject/body_html/body_text/from/to from a raw
// RFC822 message, the Go equivalent of parse_email() in the Python
// original. Uses stdlib net/mail + mime/multipart since no library in the
// retrieved pack does MIME body decoding beyond go-imap's envelope/section
// transport (recorded in DESIGN.md).
func parseEmail(r io.Reader) (emailPayload, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return emailPayload{}, err
	}

	subject, err := (&mime.WordDecoder{}).DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	payload := emailPayload{
		Subject: subject,
		From:    msg.Header.Get("From"),
		To:      msg.Header.Get("To"),
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		body, _ := io.ReadAll(msg.Body)
		payload.BodyText = string(body)
		return payload, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		walkMultipart(msg.Body, params["boundary"], &payload)
	} else {
		body := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if mediaType == "text/html" {
			payload.BodyHTML = body
		} else {
			payload.BodyText = body
		}
	}

	return payload, nil
}

func walkMultipart(r io.Reader, boundary string, payload *emailPayload) {
	if boundary == "" {
		return
	}
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}
		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		body := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		switch partType {
		case "text/html":
			payload.BodyHTML = body
		case "text/plain":
			payload.BodyText = body
		case "multipart/alternative", "multipart/related", "multipart/mixed":
			nested := strings.NewReader(body)
			_, nestedParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
			if err == nil {
				walkMultipart(nested, nestedParams["boundary"], payload)
			}
		}
	}
}

func decodeBody(r io.Reader, encoding string) string {
	switch strings.ToLower(encoding) {
	case "quoted-printable":
		data, _ := io.ReadAll(quotedprintable.NewReader(r))
		return string(data)
	default:
		data, _ := io.ReadAll(r)
		return string(data)
	}
}

func forwardToSolace(cfg forwarderConfig, payload emailPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(cfg.solaceURL, "/") + "/api/v1/webhooks/email"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.solaceAPIKey != "" {
		req.Header.Set("X-API-Key", cfg.solaceAPIKey)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("solace returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
