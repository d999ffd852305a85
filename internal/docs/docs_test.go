package docs

import (
	"strings"
	"testing"
)

func TestTopicsAndGet(t *testing.T) {
	t.Parallel()

	topics := Topics()
	want := []string{"config", "routes", "sessions"}
	if strings.Join(topics, ",") != strings.Join(want, ",") {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	for _, topic := range topics {
		body, ok := Get(strings.ToUpper(topic))
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("Get(%q) = %q, %v", topic, body, ok)
		}
	}
	for _, bad := range []string{"", "nope", "../docs"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("expected Get(%q) to fail", bad)
		}
	}
}
