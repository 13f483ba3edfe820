package client

import (
	"regexp"
	"strings"
)

var (
	videoIDPattern  = regexp.MustCompile(`^(?:sm|nm|so)?\d+$`)
	watchURLPattern = regexp.MustCompile(`(?:nicovideo\.jp/watch/|nico\.ms/)((?:sm|nm|so)?\d+)`)
)

// ExtractVideoID accepts either a raw id (sm9, nm123, so456 or a bare
// number) or common watch URL shapes, including nico.ms short links.
func ExtractVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrInvalidInput
	}
	if videoIDPattern.MatchString(s) {
		return s, nil
	}
	m := watchURLPattern.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1], nil
	}
	return "", ErrInvalidInput
}

func normalizeVideoID(input string) (string, error) {
	return ExtractVideoID(input)
}
