package mailer

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}

func TestBuildMessage(t *testing.T) {
	e := Email{
		To:       "buyer@example.com",
		Subject:  "Welcome",
		TextBody: "plain text body",
		HTMLBody: "<p>html body</p>",
	}

	msg := string(buildMessage("noreply@example.com", e))

	for _, want := range []string{
		"From: noreply@example.com",
		"To: buyer@example.com",
		"Subject: Welcome",
		"multipart/alternative",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
		"plain text body",
		"<p>html body</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessage_TextOnly(t *testing.T) {
	e := Email{
		To:       "buyer@example.com",
		Subject:  "Welcome",
		TextBody: "plain only",
	}

	msg := string(buildMessage("noreply@example.com", e))

	if strings.Contains(msg, "text/html") {
		t.Error("text-only message should not carry an HTML part")
	}
}

func TestNewForcesDevModeWithoutHost(t *testing.T) {
	m := New(Config{Host: "", DevMode: false}, testLogger(t))
	if !m.cfg.DevMode {
		t.Error("New() without host should force dev mode")
	}
}
