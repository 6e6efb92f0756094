package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

// ComputeHash returns the integrity hash over the entry's canonicalized
// fields. Canonical form is a JSON object built from a map, which
// encoding/json emits with keys sorted. When key is non-empty the digest is
// an HMAC-SHA256, plain SHA-256 otherwise. The hash covers every persisted
// field except the surrogate id and the hash itself.
func ComputeHash(e *Entry, key []byte) ([]byte, error) {
	payload := map[string]interface{}{
		"auditId":    e.AuditID.String(),
		"event":      string(e.Event),
		"entityType": e.EntityType,
		"entityId":   e.EntityID,
		"actorId":    e.ActorID,
		"actorRole":  e.ActorRole,
		"ipAddress":  e.IPAddress,
		"userAgent":  e.UserAgent,
		"sessionId":  e.SessionID,
		"createdAt":  e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.WorkflowID != nil {
		payload["workflowId"] = e.WorkflowID.String()
	}
	if len(e.OldValues) > 0 {
		payload["oldValues"] = base64.StdEncoding.EncodeToString(e.OldValues)
	}
	if len(e.NewValues) > 0 {
		payload["newValues"] = base64.StdEncoding.EncodeToString(e.NewValues)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 {
		mac := hmac.New(sha256.New, key)
		_, _ = mac.Write(data)
		return mac.Sum(nil), nil
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// VerifyHash recomputes the integrity hash and compares it with the stored
// one in constant time.
func VerifyHash(e *Entry, key []byte) (bool, error) {
	if len(e.IntegrityHash) == 0 {
		return false, nil
	}
	expected, err := ComputeHash(e, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, e.IntegrityHash), nil
}
