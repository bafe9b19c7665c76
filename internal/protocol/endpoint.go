package protocol

import (
	"errors"
	"net/url"
	"strings"
)

var ErrEmptyServer = errors.New("server address is empty")

// CreateURL is the endpoint that opens a new match.
func CreateURL(server string) (string, error) {
	base, err := baseURL(server)
	if err != nil {
		return "", err
	}
	return base + "/create", nil
}

// JoinURL is the endpoint that joins match id.
func JoinURL(server, id string) (string, error) {
	base, err := baseURL(server)
	if err != nil {
		return "", err
	}
	return base + "/join/" + url.PathEscape(strings.TrimSpace(id)), nil
}

func baseURL(server string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(server), "/")
	if s == "" {
		return "", ErrEmptyServer
	}
	if strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://") {
		return s, nil
	}
	return "ws://" + s, nil
}
