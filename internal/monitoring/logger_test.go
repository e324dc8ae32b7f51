package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("hello %d", 7)
	if got != "hello 7" {
		t.Errorf("Logf produced %q, want %q", got, "hello 7")
	}

	// nil installs a no-op logger rather than panicking
	SetLogger(nil)
	Logf("dropped %s", "message")
}
