// Package main provides a CI-friendly smoke test for the auth HTTP surface.
//
// It validates, against a running server:
//   - register -> 201 with access token + refresh cookie
//   - login (case-variant email) -> 200, same identity
//   - login with a wrong password -> 401
//   - /me with the access token -> 200
//   - /refresh via cookie -> 200 with a fresh access token
//   - /me with the refreshed token -> 200
//   - /logout -> 204 and the refresh cookie is cleared
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"
)

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authPayload struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type mePayload struct {
	User userPayload `json:"user"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		password = flag.String("password", "Str0ng!pass", "Password used for the throwaway account")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: *timeout}

	// Unique throwaway identity per run.
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())

	var reg authPayload
	status := doJSON(client, http.MethodPost, *baseURL+"/register", map[string]string{
		"name":                 "Smoke",
		"email":                email,
		"password":             *password,
		"passwordConfirmation": *password,
	}, nil, &reg)
	if status != http.StatusCreated {
		fatalf("register: status=%d want 201", status)
	}
	if strings.TrimSpace(reg.Token) == "" || reg.User.ID == "" {
		fatalf("register: missing token or user")
	}
	if !hasRefreshCookie(jar, *baseURL) {
		fatalf("register: refresh cookie not set")
	}
	if *verbose {
		fmt.Printf("registered: id=%s email=%s\n", reg.User.ID, reg.User.Email)
	}

	var login authPayload
	status = doJSON(client, http.MethodPost, *baseURL+"/login", map[string]string{
		"email":    strings.ToUpper(email),
		"password": *password,
	}, nil, &login)
	if status != http.StatusOK {
		fatalf("login: status=%d want 200", status)
	}
	if login.User.ID != reg.User.ID {
		fatalf("login: id=%q want %q", login.User.ID, reg.User.ID)
	}

	status = doJSON(client, http.MethodPost, *baseURL+"/login", map[string]string{
		"email":    email,
		"password": "wrong-Passw0rd!",
	}, nil, nil)
	if status != http.StatusUnauthorized {
		fatalf("bad login: status=%d want 401", status)
	}

	var me mePayload
	status = doJSON(client, http.MethodGet, *baseURL+"/me", nil, bearer(login.Token), &me)
	if status != http.StatusOK {
		fatalf("me: status=%d want 200", status)
	}
	if me.User.ID != reg.User.ID {
		fatalf("me: id=%q want %q", me.User.ID, reg.User.ID)
	}

	var refreshed tokenPayload
	status = doJSON(client, http.MethodPost, *baseURL+"/refresh", nil, nil, &refreshed)
	if status != http.StatusOK {
		fatalf("refresh: status=%d want 200", status)
	}
	if strings.TrimSpace(refreshed.Token) == "" {
		fatalf("refresh: empty token")
	}

	status = doJSON(client, http.MethodGet, *baseURL+"/me", nil, bearer(refreshed.Token), &me)
	if status != http.StatusOK {
		fatalf("me after refresh: status=%d want 200", status)
	}

	status = doJSON(client, http.MethodPost, *baseURL+"/logout", nil, nil, nil)
	if status != http.StatusNoContent {
		fatalf("logout: status=%d want 204", status)
	}
	if hasRefreshCookie(jar, *baseURL) {
		fatalf("logout: refresh cookie still present")
	}

	status = doJSON(client, http.MethodPost, *baseURL+"/refresh", nil, nil, nil)
	if status != http.StatusUnauthorized {
		fatalf("refresh after logout: status=%d want 401", status)
	}

	fmt.Printf("OK: id=%s email=%s\n", reg.User.ID, reg.User.Email)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func hasRefreshCookie(jar http.CookieJar, baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == "refresh_token" && c.Value != "" {
			return true
		}
	}
	return false
}

func doJSON(client *http.Client, method, rawURL string, body any, hdr http.Header, out any) int {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, rawURL, rd)
	if err != nil {
		fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("read body: %v", err)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			fatalf("decode %s %s: %v (body=%s)", method, rawURL, err, data)
		}
	}
	return resp.StatusCode
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
