package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailPlainText(t *testing.T) {
	raw := "From: alerts@splunk.example\r\n" +
		"To: oncall@solace.example\r\n" +
		"Subject: Splunk Alert: high error rate\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Search name: high error rate\nResult count: 42\n"

	payload, err := parseEmail(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Splunk Alert: high error rate", payload.Subject)
	assert.Equal(t, "alerts@splunk.example", payload.From)
	assert.Contains(t, payload.BodyText, "Result count: 42")
	assert.Empty(t, payload.BodyHTML)
}

func TestParseEmailMultipartAlternative(t *testing.T) {
	raw := "From: alerts@splunk.example\r\n" +
		"To: oncall@solace.example\r\n" +
		"Subject: Splunk Alert: disk usage\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUNDARY\"\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"disk usage at 92%\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		"<p>disk usage at 92%</p>\r\n" +
		"--BOUNDARY--\r\n"

	payload, err := parseEmail(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Splunk Alert: disk usage", payload.Subject)
	assert.Contains(t, payload.BodyText, "disk usage at 92%")
	assert.Contains(t, payload.BodyHTML, "<p>disk usage at 92%</p>")
}

func TestParseEmailEncodedSubject(t *testing.T) {
	raw := "From: alerts@splunk.example\r\n" +
		"To: oncall@solace.example\r\n" +
		"Subject: =?UTF-8?B?U3BsdW5rIEFsZXJ0OiBDUFUgc3Bpa2U=?=\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"cpu spiked above threshold\r\n"

	payload, err := parseEmail(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Splunk Alert: CPU spike", payload.Subject)
}

func TestDecodeBodyQuotedPrintable(t *testing.T) {
	encoded := "disk usage =3D 92%"
	decoded := decodeBody(strings.NewReader(encoded), "quoted-printable")
	assert.Equal(t, "disk usage = 92%", decoded)
}
