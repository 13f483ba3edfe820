package session

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestJar_RecordsAndExports(t *testing.T) {
	jar, err := NewJar()
	if err != nil {
		t.Fatalf("NewJar() error = %v", err)
	}
	u, _ := url.Parse("https://www.nicovideo.jp/")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "user_session", Value: "s1", Domain: ".nicovideo.jp", Path: "/", Expires: time.Now().Add(time.Hour)},
		{Name: "transient", Value: "x"},
	})

	exported := jar.Export()
	if len(exported) != 2 {
		t.Fatalf("len(Export()) = %d, want 2", len(exported))
	}
	byName := map[string]*http.Cookie{}
	for _, c := range exported {
		byName[c.Name] = c
	}
	if byName["user_session"] == nil || byName["user_session"].Domain != ".nicovideo.jp" {
		t.Fatalf("exported user_session lost its domain: %+v", byName["user_session"])
	}
	if byName["transient"] == nil || byName["transient"].Domain != "www.nicovideo.jp" {
		t.Fatalf("host-only cookie domain = %+v, want www.nicovideo.jp", byName["transient"])
	}
}

func TestJar_DeletionRemovesRecord(t *testing.T) {
	jar, _ := NewJar()
	u, _ := url.Parse("https://www.nicovideo.jp/")
	jar.SetCookies(u, []*http.Cookie{{Name: "user_session", Value: "s1", Domain: ".nicovideo.jp", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "user_session", Value: "", Domain: ".nicovideo.jp", Path: "/", MaxAge: -1}})

	for _, c := range jar.Export() {
		if c.Name == "user_session" {
			t.Fatalf("deleted cookie still exported: %+v", c)
		}
	}
}

func TestJar_ImportVisibleToRequests(t *testing.T) {
	jar, _ := NewJar()
	jar.Import([]*http.Cookie{
		{Name: "user_session", Value: "imported", Domain: ".nicovideo.jp", Path: "/", Expires: time.Now().Add(time.Hour)},
	})

	u, _ := url.Parse("https://nvapi.nicovideo.jp/v1/users/me")
	if v, ok := jar.Value(u, "user_session"); !ok || v != "imported" {
		t.Fatalf("imported cookie not visible to subdomain request: %q %v", v, ok)
	}
}
