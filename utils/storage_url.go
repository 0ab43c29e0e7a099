package utils

import (
	"errors"
	"net/url"
	"strings"
)

const storageHost = "storage.googleapis.com"

var ErrNotStorageURL = errors.New("not a public storage URL")

// ExtractObjectPath turns a public storage URL into the object path inside
// its bucket: https://storage.googleapis.com/<bucket>/<path>.
func ExtractObjectPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host != storageHost {
		return "", ErrNotStorageURL
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrNotStorageURL
	}
	return parts[1], nil
}
