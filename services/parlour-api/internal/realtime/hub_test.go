package realtime

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/utiibeauty/parlour/libs/model"
)

func testHub(origins []string) *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), origins)
}

func TestHubSubscribeCancel(t *testing.T) {
	h := testHub(nil)
	ch, cancel := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers())
	}
	h.PublishShopStatus(model.ShopStatus{ID: "s1", IsOpen: false})
	got := <-ch
	if got.Event != model.EventUpdate || got.Table != model.TableShopStatus || got.New.ID != "s1" {
		t.Fatalf("unexpected change: %+v", got)
	}
	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}
}

func TestHubServeWebSocket(t *testing.T) {
	h := testHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.PublishShopStatus(model.ShopStatus{ID: "s1", IsOpen: true, UpdatedBy: "admin"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var change model.ShopStatusChange
	if err := conn.ReadJSON(&change); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !change.New.IsOpen || change.New.UpdatedBy != "admin" {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	h := testHub([]string{"https://utibeauty.com"})
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %+v", resp)
	}
}
