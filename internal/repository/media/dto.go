package media

import (
	"strconv"

	dommedia "github.com/silodex/silodex/internal/domain/media"
)

func mediaToFields(m dommedia.Media) map[string]string {
	// HSET merges into an existing hash, so mutable fields are always
	// written even when empty or zero. Re-entering processing clears
	// error_message and processed_at, and that clearing must reach the hash.
	fields := map[string]string{
		"name":          m.Name(),
		"source_type":   string(m.SourceType()),
		"status":        string(m.Status()),
		"error_message": m.ErrorMessage(),
		"processed_at":  strconv.FormatInt(m.ProcessedAt(), 10),
		"created_at":    strconv.FormatInt(m.CreatedAt(), 10),
	}
	if m.SourceURL() != "" {
		fields["source_url"] = m.SourceURL()
	}
	if m.Duration() > 0 {
		fields["duration"] = strconv.FormatFloat(m.Duration(), 'f', -1, 64)
	}
	if m.Language() != "" {
		fields["language"] = m.Language()
	}
	if m.FolderID() != "" {
		fields["folder_id"] = m.FolderID()
	}
	return fields
}

func fieldsToMedia(id, siloID string, m map[string]string) dommedia.Media {
	duration, _ := strconv.ParseFloat(m["duration"], 64)
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	processedAt, _ := strconv.ParseInt(m["processed_at"], 10, 64)

	return dommedia.Reconstruct(
		id,
		siloID,
		m["name"],
		dommedia.SourceType(m["source_type"]),
		m["source_url"],
		m["language"],
		duration,
		dommedia.Status(m["status"]),
		m["error_message"],
		m["folder_id"],
		createdAt,
		processedAt,
	)
}
