// Package cookies reads and writes the Netscape cookies.txt format so login
// sessions survive process restarts and interoperate with browser exports.
package cookies

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const fileHeader = "# Netscape HTTP Cookie File"

// ParseNetscape parses a Netscape cookies.txt stream.
// Format: domain flag path secure expiration name value
func ParseNetscape(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}

		// Field 1 (the include-subdomains flag) duplicates the leading dot
		// of the domain field, so it is not kept.
		domain := parts[0]
		path := parts[2]
		secure := strings.EqualFold(parts[3], "TRUE")
		expiresUnix, _ := strconv.ParseInt(parts[4], 10, 64)
		name := parts[5]
		value := parts[6]

		cookie := &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: domain,
			Path:   path,
			Secure: secure,
		}
		if expiresUnix > 0 {
			cookie.Expires = time.Unix(expiresUnix, 0)
		}
		cookies = append(cookies, cookie)
	}

	return cookies, scanner.Err()
}

// WriteNetscape writes cookies as a Netscape cookies.txt stream. Session
// cookies (no expiry) are written with expiration 0.
func WriteNetscape(w io.Writer, cookies []*http.Cookie) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, fileHeader); err != nil {
		return err
	}
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		domain := c.Domain
		flag := "FALSE"
		if strings.HasPrefix(domain, ".") {
			flag = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, flag, path, secure, expires, c.Name, c.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}
