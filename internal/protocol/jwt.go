package protocol

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeUnverified splits a JWT and decodes its header and claim payload
// without checking the signature. The result is for display and claim
// extraction only and must never be used as an authorization input: the
// tokens handled here either came straight from the TLS-protected token
// endpoint or are re-validated by the resource service on every call.
func DecodeUnverified(token string) (header map[string]any, claims map[string]any, err error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, nil, fmt.Errorf("decode token: %w", err)
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, fmt.Errorf("decode token: unexpected claims type %T", parsed.Claims)
	}
	return parsed.Header, map[string]any(mapClaims), nil
}

// StringClaim returns the named claim if it is present and a string.
func StringClaim(claims map[string]any, name string) string {
	v, _ := claims[name].(string)
	return v
}

// PickClaims projects the allow-listed keys out of a claims map. Keys absent
// from the input are omitted rather than emitted as null.
func PickClaims(claims map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := claims[k]; ok {
			out[k] = v
		}
	}
	return out
}
