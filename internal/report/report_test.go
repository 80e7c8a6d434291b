// ABOUTME: Tests for the device report store and sender
// ABOUTME: Uses temp dirs and a local http test server
package report

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFlattenAndParse(t *testing.T) {
	device := map[string]string{
		"name":    "Nokia 5310",
		"version": "1.0,beta", // comma must not break the format
		"conn":    "wifi",
		"ignored": "dropped",
	}
	line := flatten(device)
	want := "name=Nokia 5310,version=1.0_beta,conn=wifi,utf8=unknown,touch=unknown"
	if line != want {
		t.Errorf("flatten gave %q, want %q", line, want)
	}

	back := parse(line)
	if back["version"] != "1.0_beta" || back["utf8"] != "unknown" {
		t.Errorf("parse gave %v", back)
	}
	if _, ok := back["ignored"]; ok {
		t.Error("unknown field survived the round trip")
	}
}

func TestLogDeviceDeduplicates(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	device := map[string]string{"name": "phone", "conn": "wifi"}
	store.LogDevice(device)
	store.LogDevice(device)
	store.LogDevice(map[string]string{"name": "tablet", "conn": "wifi"})

	devices, err := store.Devices()
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("stored %d devices, want 2", len(devices))
	}
}

func TestDevicesWithoutFile(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	devices, err := store.Devices()
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("got %d devices from a missing file", len(devices))
	}
}

func TestSendAll(t *testing.T) {
	var got []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = append(got, r.PostForm)
	}))
	defer server.Close()

	store := NewStore(t.TempDir(), nil)
	store.LogDevice(map[string]string{"name": "phone", "conn": "wifi", "utf8": "yes"})

	sender := NewSender()
	sender.URL = server.URL
	n, err := sender.SendAll(store)
	if err != nil {
		t.Fatalf("SendAll failed: %v", err)
	}
	if n != 1 || len(got) != 1 {
		t.Fatalf("sent %d reports, server saw %d, want 1", n, len(got))
	}

	form := got[0]
	if form.Get("ww") != "sun_is_shining" {
		t.Errorf("watchword = %q", form.Get("ww"))
	}
	if form.Get("name") != "phone" || form.Get("touch") != "unknown" {
		t.Errorf("form = %v", form)
	}
}

func TestSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	sender := NewSender()
	sender.URL = server.URL
	if err := sender.Send(map[string]string{"name": "x"}); err == nil {
		t.Error("expected error for a rejected report")
	}
}
