package cloudstore

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
)

// panicRoundTripper fails the test if any request reaches the network layer.
type panicRoundTripper struct{ t *testing.T }

func (p *panicRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	p.t.Fatalf("unexpected network call: %s %s", r.Method, r.URL)
	return nil, errors.New("unreachable")
}

func newOfflineDriveStore(t *testing.T, tokens TokenProvider, online ConnectivityProbe) *DriveStore {
	t.Helper()
	client := &http.Client{Transport: &panicRoundTripper{t: t}}
	s, err := NewDriveStore(context.Background(), client, tokens, online)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestDriveStore_WriteWithoutSessionSkipsNetwork(t *testing.T) {
	s := newOfflineDriveStore(t, &stubTokens{authed: false}, nil)

	err := s.Write(context.Background(), []byte("{}"))
	var serr *StoreError
	if !errors.As(err, &serr) || serr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a network call, got %v", err)
	}
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if !DialProbe(ln.Addr().String())() {
		t.Fatal("expected online against a listening address")
	}

	addr := ln.Addr().String()
	ln.Close()
	if DialProbe(addr)() {
		t.Fatal("expected offline against a closed address")
	}
}

func TestDriveStore_CheckAccessOfflineSkipsNetwork(t *testing.T) {
	s := newOfflineDriveStore(t, &stubTokens{authed: true}, func() bool { return false })

	if s.CheckAccess(context.Background()) {
		t.Fatal("expected no access while the probe reports offline")
	}
}
