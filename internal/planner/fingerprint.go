package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// calorieBucketSize groups nearby calorie targets into one cache bucket so
// requests differing by a few calories reuse the same validated result.
const calorieBucketSize = 100

// NormalizedRequest carries only the semantically relevant fields of a
// generation request. Volatile fields (timestamps, free-text messages) are
// deliberately absent so logically identical requests fingerprint alike.
type NormalizedRequest struct {
	CookingMethod       validation.CookingMethod
	DietaryRestrictions []string
	PreferredProteins   []string
	CalorieTarget       int
}

// Fingerprint derives a deterministic cache key from a normalized request.
// Slice fields are sorted before hashing, so input ordering never affects
// the output.
func Fingerprint(req NormalizedRequest) string {
	restrictions := normalizeList(req.DietaryRestrictions)
	proteins := normalizeList(req.PreferredProteins)
	bucket := req.CalorieTarget / calorieBucketSize * calorieBucketSize

	var sb strings.Builder
	sb.WriteString("method=")
	sb.WriteString(string(req.CookingMethod))
	sb.WriteString("|restrictions=")
	sb.WriteString(strings.Join(restrictions, ","))
	sb.WriteString("|proteins=")
	sb.WriteString(strings.Join(proteins, ","))
	sb.WriteString("|calories=")
	sb.WriteString(strconv.Itoa(bucket))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
