package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyURI         = "uri"
	KeyPath        = "path"
	KeyFile        = "file"
	KeyContentType = "content_type"
	KeyModifier    = "modifier"
	KeyMarkers     = "markers"
	KeyInput       = "input"
	KeyOutput      = "output"
	KeyWorker      = "worker"
	KeyMethod      = "method"
	KeyStatus      = "status"
	KeyResponseSz  = "response_size"
	KeyRequestID   = "request_id"
	KeyUserAgent   = "user_agent"
	KeyRemoteAddr  = "remote_addr"
	KeyDurationMS  = "duration_ms"
	KeyAddr        = "addr"
	KeyError       = "error"
)

func URI(u string) slog.Attr { return slog.String(KeyURI, u) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func File(f string) slog.Attr { return slog.String(KeyFile, f) }
func ContentType(ct string) slog.Attr { return slog.String(KeyContentType, ct) }
func Modifier(name string) slog.Attr { return slog.String(KeyModifier, name) }
func Markers(n int) slog.Attr { return slog.Int(KeyMarkers, n) }
func Input(in string) slog.Attr { return slog.String(KeyInput, in) }
func Output(out string) slog.Attr { return slog.String(KeyOutput, out) }
func Worker(id int) slog.Attr { return slog.Int(KeyWorker, id) }
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr { return slog.Int(KeyResponseSz, n) }
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func UserAgent(ua string) slog.Attr { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(addr string) slog.Attr { return slog.String(KeyAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
