package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"URI", KeyURI, "/index.html", URI("/index.html")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "index.html", File("index.html")},
		{"ContentType", KeyContentType, "text/html", ContentType("text/html")},
		{"Modifier", KeyModifier, "script", Modifier("script")},
		{"Input", KeyInput, "a.html", Input("a.html")},
		{"Output", KeyOutput, "b.html", Output("b.html")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"Addr", KeyAddr, ":5000", Addr(":5000")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Key drift would break log ingestion schemas.
			assert.Equal(t, tc.attrKey, tc.attr.Key)
			assert.Equal(t, tc.attrVal, tc.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, KeyStatus, Status(200).Key)
	assert.Equal(t, int64(200), Status(200).Value.Int64())
	assert.Equal(t, KeyResponseSz, ResponseSize(42).Key)
	assert.Equal(t, KeyMarkers, Markers(2).Key)
	assert.Equal(t, KeyWorker, Worker(1).Key)
	assert.Equal(t, KeyDurationMS, DurationMS(12.5).Key)
}

func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	assert.Equal(t, KeyError, attr.Key)
	assert.Empty(t, attr.Value.String())
	assert.Equal(t, "err-test", Error(errors.New("err-test")).Value.String())
}
