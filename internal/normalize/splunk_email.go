package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"solace/internal/domain"
)

// searchNamePatterns mirrors _extract_search_name in
// original_source/backend/integrations/email_ingest.py.
var searchNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Splunk\s+Alert[\s:\x{2013}\-]+(.+)`),
	regexp.MustCompile(`(?i)^\[Splunk\]\s*(.+)`),
}

func extractSearchName(subject string) string {
	for _, re := range searchNamePatterns {
		if m := re.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	return "Splunk Email Alert"
}

// parseHTMLTables walks every <table> in the document and returns its rows
// as header-keyed maps. It reuses golang.org/x/net/html (the ecosystem
// counterpart of Python's html.parser.HTMLParser used by the original).
func parseHTMLTables(htmlBody string) [][]map[string]string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	var tables [][]map[string]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if rows := parseOneTable(n); len(rows) > 0 {
				tables = append(tables, rows)
			}
			// Splunk tables are not nested; don't descend further.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables
}

func parseOneTable(table *html.Node) []map[string]string {
	var headers []string
	var rows []map[string]string

	var rowCells func(tr *html.Node) ([]string, bool)
	rowCells = func(tr *html.Node) ([]string, bool) {
		var cells []string
		isHeaderRow := false
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				isHeaderRow = true
				cells = append(cells, strings.TrimSpace(textContent(c)))
			case "td":
				cells = append(cells, strings.TrimSpace(textContent(c)))
			}
		}
		return cells, isHeaderRow
	}

	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells, isHeaderRow := rowCells(n)
			if len(cells) == 0 {
				return
			}
			if headers == nil {
				headers = cells
				_ = isHeaderRow
				return
			}
			row := map[string]string{}
			any := false
			for i, h := range headers {
				if i < len(cells) {
					row[h] = cells[i]
					if cells[i] != "" {
						any = true
					}
				}
			}
			if any {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	return rows
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// parsePlainTextTable handles Splunk's tab- or pipe-delimited plain text
// fallback (original_source/backend/integrations/email_ingest.py).
func parsePlainTextTable(text string) []map[string]string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	if headers := strings.Split(lines[0], "\t"); len(headers) > 1 {
		var rows []map[string]string
		for _, line := range lines[1:] {
			values := strings.Split(line, "\t")
			if len(values) >= len(headers) {
				row := map[string]string{}
				for i, h := range headers {
					row[h] = strings.TrimSpace(values[i])
				}
				rows = append(rows, row)
			}
		}
		if len(rows) > 0 {
			return rows
		}
	}

	rawHeaders := strings.Split(lines[0], "|")
	var headers []string
	for _, h := range rawHeaders {
		if t := strings.TrimSpace(h); t != "" {
			headers = append(headers, t)
		}
	}
	if len(headers) > 1 {
		var rows []map[string]string
		for _, line := range lines[1:] {
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "=") {
				continue
			}
			var values []string
			for _, v := range strings.Split(line, "|") {
				if t := strings.TrimSpace(v); t != "" {
					values = append(values, t)
				}
			}
			if len(values) >= len(headers) {
				row := map[string]string{}
				for i, h := range headers {
					row[h] = values[i]
				}
				rows = append(rows, row)
			}
		}
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

type splunkEmailNormalizer struct{}

func init() {
	Register("email", splunkEmailNormalizer{})
}

func (splunkEmailNormalizer) Validate(payload map[string]interface{}) bool {
	if _, ok := payload["subject"]; !ok {
		return false
	}
	_, hasHTML := payload["body_html"]
	_, hasText := payload["body_text"]
	return hasHTML || hasText
}

func (splunkEmailNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
	subject := asString(payload["subject"])
	bodyHTML := asString(payload["body_html"])
	bodyText := asString(payload["body_text"])
	sender := asString(payload["from"])

	searchName := extractSearchName(subject)

	var rows []map[string]string
	if bodyHTML != "" {
		tables := parseHTMLTables(bodyHTML)
		if len(tables) > 0 {
			// Use the largest table by row count — most likely the
			// results table (spec.md §4.1).
			best := tables[0]
			for _, t := range tables[1:] {
				if len(t) > len(best) {
					best = t
				}
			}
			rows = best
		}
	}
	if len(rows) == 0 && bodyText != "" {
		rows = parsePlainTextTable(bodyText)
	}

	if len(rows) == 0 {
		desc := subject
		if bodyText != "" {
			desc = truncate(bodyText, 500)
		}
		return []domain.NormalizedAlert{{
			Name:        searchName,
			Source:      "splunk",
			Severity:    domain.SeverityWarning,
			Status:      domain.AlertStatusFiring,
			Description: desc,
			Labels: domain.StringMap{
				"splunk_email_from":    sender,
				"splunk_email_subject": subject,
			},
			Annotations: domain.StringMap{},
			RawPayload:  domain.RawJSON(payload),
		}}
	}

	extracted := splunkExtractedKeySet()
	extracted["_raw"] = true

	sourcePathRe := regexp.MustCompile(`/([^/]+)/logs?/`)

	var out []domain.NormalizedAlert
	for _, row := range rows {
		severity := splunkExtractSeverity(row)
		host := splunkExtractFromResult(row, splunkHostFieldKeys)
		service := splunkExtractFromResult(row, splunkServiceFieldKeys)
		environment := splunkExtractFromResult(row, splunkEnvFieldKeys)
		description := splunkExtractFromResult(row, splunkDescriptionFieldKeys)

		if description != "" && len(description) <= 10 {
			longer := row["latest_error"]
			if longer == "" {
				longer = truncate(row["_raw"], 500)
			}
			if len(longer) > len(description) {
				description = longer
			}
		}
		if description == "" {
			if raw, ok := row["_raw"]; ok {
				description = truncate(raw, 500)
			}
		}

		labels := splunkBuildLabels(row, extracted)
		labels["splunk_email_from"] = sender
		labels["splunk_search_name"] = searchName

		if service == "" {
			if src := row["source"]; src != "" {
				if m := sourcePathRe.FindStringSubmatch(src); m != nil {
					service = m[1]
				}
			}
		}

		out = append(out, domain.NormalizedAlert{
			Name:        searchName,
			Source:      "splunk",
			Severity:    severity,
			Status:      domain.AlertStatusFiring,
			Description: description,
			Service:     service,
			Environment: environment,
			Host:        host,
			Labels:      labels,
			Annotations: domain.StringMap{},
			RawPayload:  stringMapToRaw(row),
		})
	}
	return out
}

func stringMapToRaw(m map[string]string) domain.RawJSON {
	out := domain.RawJSON{}
	for k, v := range m {
		out[k] = v
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
