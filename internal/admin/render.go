package admin

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"saferoute/internal/domain"
)

const timeLayout = "Jan 2, 2006 15:04"

func text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

func shorten(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		return string(r[:n]) + "…"
	}
	return string(r)
}

func excerpt(s string, n int) template.HTML { return text(shorten(s, n)) }

func badge(kind, label string) template.HTML {
	return template.HTML(fmt.Sprintf(`<span class="badge badge-%s">%s</span>`,
		template.HTMLEscapeString(kind), template.HTMLEscapeString(label)))
}

func severityBadge(severity string) template.HTML {
	return badge("severity-"+severity, domain.Label(domain.Severities, severity))
}

func categoryBadge(choices []domain.Choice, category string) template.HTML {
	return badge("category", domain.Label(choices, category))
}

func verifiedBadge(verified bool) template.HTML {
	if verified {
		return badge("verified", "Verified")
	}
	return badge("pending", "Pending")
}

func boolIcon(v bool) template.HTML {
	if v {
		return badge("yes", "Yes")
	}
	return badge("no", "No")
}

// link points at another console record.
func link(resource string, id uint, label string) template.HTML {
	if id == 0 {
		return "-"
	}
	return template.HTML(fmt.Sprintf(`<a href="/admin/%s/%d/">%s</a>`,
		template.HTMLEscapeString(resource), id, template.HTMLEscapeString(label)))
}

func thumbnail(url, alt string) template.HTML {
	if url == "" {
		return "-"
	}
	return template.HTML(fmt.Sprintf(`<img src="%s" alt="%s" class="admin-thumb" loading="lazy">`,
		template.HTMLEscapeString(url), template.HTMLEscapeString(alt)))
}

func fileLink(url, label string) template.HTML {
	if url == "" {
		return "-"
	}
	return template.HTML(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`,
		template.HTMLEscapeString(url), template.HTMLEscapeString(label)))
}

func timestamp(t time.Time) template.HTML {
	if t.IsZero() {
		return "-"
	}
	return text(t.Format(timeLayout))
}

func number(v any) template.HTML {
	return text(fmt.Sprint(v))
}
