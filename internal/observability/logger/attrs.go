package logger

import "log/slog"

// Attribute keys shared by every log record of the service.
const (
	KeyRequestID  = "request_id"
	KeyTenantID   = "tenant_id"
	KeyLoader     = "loader"
	KeyBatchSize  = "batch_size"
	KeyQuery      = "query"
	KeyComponent  = "component"
	KeyOperation  = "operation"
	KeyError      = "error"
	KeyStatusCode = "status_code"
	KeyDurationMS = "duration_ms"
)

// HTTP request attributes

func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

func Method(method string) slog.Attr { return slog.String("method", method) }

func Path(path string) slog.Attr { return slog.String("path", path) }

func RemoteAddr(addr string) slog.Attr { return slog.String("remote_addr", addr) }

func StatusCode(code int) slog.Attr { return slog.Int(KeyStatusCode, code) }

func Duration(ms int64) slog.Attr { return slog.Int64(KeyDurationMS, ms) }

// TenantID identifies the organization an operation ran for. Operations
// without a tenant log "none".
func TenantID(id string) slog.Attr { return slog.String(KeyTenantID, id) }

// Loader names the batch loader of a record.
func Loader(name string) slog.Attr { return slog.String(KeyLoader, name) }

// BatchSize is the number of keys a batch dispatched.
func BatchSize(n int) slog.Attr { return slog.Int(KeyBatchSize, n) }

// Query is a SQL statement with its whitespace collapsed.
func Query(query string) slog.Attr { return slog.String(KeyQuery, query) }

// Error attributes a failure. A nil error logs an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }
