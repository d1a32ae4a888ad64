package core

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns "prefix_" + base-36 timestamp + 7 random base-36
// characters. Collisions are statistically negligible and not checked.
func GenerateID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := randomBase36(7)
	if prefix == "" {
		return ts + suffix
	}
	return prefix + "_" + ts + suffix
}

func randomBase36(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the timestamp tail to keep the ID well-formed regardless.
		return strconv.FormatInt(time.Now().UnixNano(), 36)[:n]
	}
	var b strings.Builder
	b.Grow(n)
	for _, c := range buf {
		b.WriteByte(base36[int(c)%len(base36)])
	}
	return b.String()
}

// ParseTags splits a comma-separated string into trimmed, lowercased,
// non-empty tags.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// NormalizeTags applies the ParseTags rules to an already-split list.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
