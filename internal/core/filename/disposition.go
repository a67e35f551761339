package filename

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// FromDisposition extracts a file name from a Content-Disposition value.
// filename* (RFC 5987) wins over filename. ok is false when neither
// parameter is present or the extended value cannot be decoded.
// Unquoted spaces and raw UTF-8 are accepted, unlike mime.ParseMediaType
func FromDisposition(header string) (string, bool) {
	params := dispositionParams(header)
	if v, ok := params["filename*"]; ok {
		if name, err := decodeExtValue(v); err == nil && strings.TrimSpace(name) != "" {
			return name, true
		}
	}
	if v, ok := params["filename"]; ok {
		v = trimQuotes(v)
		if dec, err := url.PathUnescape(v); err == nil {
			v = dec
		}
		if strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// dispositionParams splits `attachment; a=b; c="d;e"` into lowercased keys.
// Semicolons inside double quotes do not split
func dispositionParams(header string) map[string]string {
	out := map[string]string{}
	var parts []string
	inQuote, start := false, 0
	for i := 0; i < len(header); i++ {
		switch header[i] {
		case '"':
			inQuote = !inQuote
		case '\\':
			if inQuote {
				i++
			}
		case ';':
			if !inQuote {
				parts = append(parts, header[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, header[start:])

	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if _, seen := out[k]; !seen {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// decodeExtValue decodes charset'lang'pct-encoded, falling back to a plain
// quoted or percent-encoded value when the prefix is missing
func decodeExtValue(v string) (string, error) {
	v = trimQuotes(v)
	charset, rest := "", v
	if cs, tail, ok := strings.Cut(v, "'"); ok {
		if _, enc, ok := strings.Cut(tail, "'"); ok {
			charset, rest = cs, enc
		}
	}
	raw, err := url.PathUnescape(rest)
	if err != nil {
		return "", err
	}
	return transcode(charset, raw)
}

// transcode converts raw bytes labelled charset to UTF-8
func transcode(charset, raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii":
		return raw, nil
	}
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		// unknown labels keep the bytes as-is
		return raw, nil
	}
	b, err := io.ReadAll(enc.NewDecoder().Reader(strings.NewReader(raw)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}
