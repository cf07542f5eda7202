package app

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"reviewlist/internal/domain"
)

/********** alias registry (single source of truth) **********/

var reviewAliases = map[string][]string{
	"source_id":  {"id", "review_id", "reviewId"},
	"first_name": {"first_name", "firstname", "firstName", "user.first_name", "user.firstName"},
	"last_name":  {"last_name", "lastname", "lastName", "user.last_name", "user.lastName"},
	"author":     {"author", "name", "userName", "reviewer", "reviewer.name"},
	"text":       {"text", "review_text", "review", "comment", "content", "body"},
	"created":    {"created", "created_at", "date", "createdAt"},
	"avatar":     {"avatar_url", "avatarUrl", "avatar", "user.avatar_url", "user.avatar"},
	"rating":     {"rating", "rate", "score", "rating.value", "stars"},
}

var photoAliases = []string{"photo_urls", "photoUrls", "photos", "images"}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t = strings.TrimSpace(t); t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// splitName splits a single author field into first and last name.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.LastIndexByte(full, ' '); i > 0 {
		return strings.TrimSpace(full[:i]), full[i+1:]
	}
	return full, ""
}

/********** reviews mapper **********/

func mapReviews(in []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, r := range in {
		var rv domain.Review

		// Name → prefer split fields; fallback to a single author field.
		rv.FirstName = firstNonEmptyAlias(r, "first_name")
		rv.LastName = firstNonEmptyAlias(r, "last_name")
		if rv.FirstName == "" && rv.LastName == "" {
			rv.FirstName, rv.LastName = splitName(firstNonEmptyAlias(r, "author"))
		}

		if f := getFloatFlexible(r, reviewAliases["rating"]...); f != nil {
			rv.Rating = int(math.Round(min(max(*f, 1), 5)))
		}
		rv.Text = firstNonEmptyAlias(r, "text")
		rv.Created = firstNonEmptyAlias(r, "created")
		if s := firstNonEmptyAlias(r, "avatar"); s != "" {
			rv.AvatarURL = &s
		}
		rv.PhotoURLs = firstSliceStrings(r, photoAliases...)

		// SourceID → prefer explicit; else synthesize stable hash.
		if s := firstNonEmptyAlias(r, "source_id"); s != "" {
			rv.SourceID = s
		} else if f := getFloatFlexible(r, reviewAliases["source_id"]...); f != nil {
			rv.SourceID = strconv.FormatInt(int64(*f), 10)
		} else {
			sig := strings.Join([]string{
				rv.FirstName, rv.LastName, strconv.Itoa(rv.Rating), rv.Text, rv.Created,
			}, "|")
			sum := sha1.Sum([]byte(sig))
			rv.SourceID = hex.EncodeToString(sum[:])
		}

		out = append(out, rv)
	}
	return out
}
