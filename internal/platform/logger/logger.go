package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config selects the zap preset and how identity data is scrubbed. With
// Redact set, secrets and identity values in structured fields are replaced;
// HashSalt is mixed into the pseudonyms of correlatable values.
type Config struct {
	Mode     string
	Redact   bool
	HashSalt string
}

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

func New(cfg Config) (*Logger, error) {
	var zcfg zap.Config
	switch strings.ToLower(cfg.Mode) {
	case "prod", "production":
		zcfg = zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	var s *scrubber
	if cfg.Redact {
		s = &scrubber{salt: cfg.HashSalt}
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), scrub: s}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.scrub.fields(keysAndValues)...), scrub: l.scrub}
}

const redacted = "[REDACTED]"

// Credit report payloads carry identity data. Keys are compared lowercased
// with '_' and '-' removed, so "birthDate" and "BIRTH_DATE" both match.
var redactKeyFragments = []string{
	"token", "authorization", "password", "secret", "cookie", "apikey",
	"email", "phone",
	"ssn", "socialsecurity", "dob", "birth", "accountnumber", "acctnum",
	"parseddata", "rawdocument",
}

// Keys whose values identify a person but are useful for correlation.
var hashKeyFragments = []string{"userid", "adminsubject", "subjectname", "lastname", "firstname"}

// scrubber rewrites structured log fields. A nil scrubber passes them through.
type scrubber struct {
	salt string
}

func (s *scrubber) fields(kv []interface{}) []interface{} {
	if s == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, s.value(normalizeKey(key), kv[i+1]))
	}
	return out
}

func (s *scrubber) value(key string, val interface{}) interface{} {
	switch {
	case matchesAny(key, redactKeyFragments):
		return redacted
	case matchesAny(key, hashKeyFragments):
		return s.pseudonym(val)
	}
	switch v := val.(type) {
	case json.RawMessage, []byte:
		// raw document bodies never reach the log, whatever the key
		return redacted
	case string:
		if looksLikeBearer(v) {
			return redacted
		}
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = s.value(normalizeKey(k), e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = s.value("", e)
		}
		return out
	default:
		return val
	}
}

func (s *scrubber) pseudonym(val interface{}) string {
	if val == nil {
		return ""
	}
	raw := strings.TrimSpace(fmt.Sprint(val))
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func normalizeKey(key string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(key)))
}

func matchesAny(key string, fragments []string) bool {
	if key == "" {
		return false
	}
	for _, f := range fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

// looksLikeBearer spots compact JWS values such as admin tokens.
func looksLikeBearer(s string) bool {
	if !strings.HasPrefix(s, "eyJ") {
		return false
	}
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[1]) > 10
}
