package silo

import (
	"strconv"
	"strings"

	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

func siloToFields(s domsilo.Silo) map[string]string {
	m := map[string]string{
		"name":       s.Name(),
		"created_at": strconv.FormatInt(s.CreatedAt(), 10),
	}
	if s.BaseURL() != "" {
		m["base_url"] = s.BaseURL()
	}
	if s.ContentTag() != "" {
		m["content_tag"] = s.ContentTag()
	}
	if s.ContentClass() != "" {
		m["content_class"] = s.ContentClass()
	}
	if s.ContentID() != "" {
		m["content_id"] = s.ContentID()
	}
	if s.AppID() != "" {
		m["app_id"] = s.AppID()
	}
	if len(s.TagFields()) > 0 {
		m["tag_fields"] = strings.Join(s.TagFields(), ",")
	}
	if len(s.NumericFields()) > 0 {
		m["numeric_fields"] = strings.Join(s.NumericFields(), ",")
	}
	return m
}

func fieldsToSilo(id string, m map[string]string) domsilo.Silo {
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	return domsilo.Reconstruct(
		id,
		m["name"],
		m["base_url"],
		m["content_tag"],
		m["content_class"],
		m["content_id"],
		m["app_id"],
		splitFields(m["tag_fields"]),
		splitFields(m["numeric_fields"]),
		createdAt,
	)
}

func domainToFields(d domsilo.Domain) map[string]string {
	m := map[string]string{
		"name":       d.Name(),
		"created_at": strconv.FormatInt(d.CreatedAt(), 10),
	}
	if d.URL() != "" {
		m["url"] = d.URL()
	}
	return m
}

func fieldsToDomain(id, siloID string, m map[string]string) domsilo.Domain {
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	return domsilo.ReconstructDomain(id, siloID, m["name"], m["url"], createdAt)
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
