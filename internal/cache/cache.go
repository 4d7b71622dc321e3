package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/rootcheck/internal/model"
)

// Cache stores verdicts between boundary calls
type Cache interface {
	Get(key string) (model.Verdict, bool)
	Set(key string, verdict model.Verdict, ttl time.Duration)
	Delete(key string)
	Clear()
}

// CacheKey derives a key from everything that shapes a verdict: the ordered
// heuristic identifiers, the policy thresholds, the probe root and whether
// detail was requested
func CacheKey(ids []string, policy model.PolicyConfig, root string, detail bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "ids=%s\n", strings.Join(ids, ","))
	fmt.Fprintf(h, "high=%d medium=%d\n", policy.HighConfidenceThreshold, policy.MediumConfidenceCount)
	fmt.Fprintf(h, "root=%s detail=%t\n", root, detail)
	return "rootcheck:v1:" + hex.EncodeToString(h.Sum(nil))
}
