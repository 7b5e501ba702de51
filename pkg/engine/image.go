package engine

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/rhuss/askgate/pkg/provider"
)

var errBadImage = errors.New("image is not valid base64")

// defaultImageMIME is assumed when neither a data URI nor the bytes say
// otherwise.
const defaultImageMIME = "image/png"

// decodeImage accepts raw base64 (padded or not, standard or URL alphabet)
// or a data URI such as "data:image/jpeg;base64,...".
func decodeImage(s string) (provider.Image, error) {
	s = strings.TrimSpace(s)
	mime := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return provider.Image{}, errBadImage
		}
		mime = strings.TrimSuffix(header, ";base64")
		s = payload
	}

	// Browsers sometimes wrap long base64 strings.
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	data, err := decodeBase64(s)
	if err != nil || len(data) == 0 {
		return provider.Image{}, errBadImage
	}

	if mime == "" {
		if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
			mime = sniffed
		} else {
			mime = defaultImageMIME
		}
	}
	return provider.Image{MIMEType: mime, Data: data}, nil
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
