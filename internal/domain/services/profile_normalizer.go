package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
)

// Claim fallback orders. The first present claim wins.
var (
	subjectClaims     = []string{"sub", "id"}
	displayNameClaims = []string{"nickname", "preferred_username", "name"}
	namePartClaims    = []string{"given_name", "middle_name", "family_name"}
)

const (
	fullnameClaim      = "name"
	pictureClaim       = "picture"
	emailClaim         = "email"
	emailVerifiedClaim = "email_verified"
	rolesClaim         = "roles"
)

// NormalizeProfile maps a raw provider profile onto a CanonicalIdentity using the
// strategy's override rules. It performs no I/O and does not check that the
// identity is complete; see ValidateIdentity.
func NormalizeProfile(cfg *entities.StrategyConfig, raw []byte) (*entities.CanonicalIdentity, error) {
	claims, err := decodeClaims(raw)
	if err != nil {
		return nil, err
	}

	id := &entities.CanonicalIdentity{
		Provider:      cfg.Name,
		Email:         claimString(claims, emailClaim),
		EmailVerified: claimBool(claims, emailVerifiedClaim),
		Picture:       claimString(claims, pictureClaim),
		Roles:         claimStrings(claims, rolesClaim),
	}

	if cfg.IDKey != "" {
		id.SubjectID = claimString(claims, cfg.IDKey)
	} else {
		id.SubjectID = firstClaim(claims, subjectClaims)
	}

	switch {
	case cfg.ForceUsernameViaEmail:
		id.DisplayName = emailLocalPart(id.Email)
	default:
		id.DisplayName = firstClaim(claims, displayNameClaims)
		if id.DisplayName == "" && cfg.UsernameViaEmail {
			id.DisplayName = emailLocalPart(id.Email)
		}
	}

	id.Fullname = claimString(claims, fullnameClaim)
	if id.Fullname == "" {
		parts := make([]string, 0, len(namePartClaims))
		for _, c := range namePartClaims {
			if v := claimString(claims, c); v != "" {
				parts = append(parts, v)
			}
		}
		id.Fullname = strings.Join(parts, " ")
	}

	return id, nil
}

// ValidateIdentity fails with ErrInsufficientIdentity naming the missing claims
func ValidateIdentity(id *entities.CanonicalIdentity) error {
	if id.Complete() {
		return nil
	}

	var missing []string
	if id.SubjectID == "" {
		missing = append(missing, "subjectId")
	}
	if id.DisplayName == "" {
		missing = append(missing, "displayName")
	}
	if id.Email == "" {
		missing = append(missing, "email")
	}
	return fmt.Errorf("%w: missing %s", ErrInsufficientIdentity, strings.Join(missing, ", "))
}

func decodeClaims(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after profile", ErrMalformedProfile)
	}

	claims, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: profile is not an object", ErrMalformedProfile)
	}
	return claims, nil
}

func firstClaim(claims map[string]any, names []string) string {
	for _, name := range names {
		if v := claimString(claims, name); v != "" {
			return v
		}
	}
	return ""
}

// claimString returns string and numeric claims as text; null and other types are absent
func claimString(claims map[string]any, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// claimBool accepts a JSON boolean or the string "true"
func claimBool(claims map[string]any, name string) bool {
	switch v := claims[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

func claimStrings(claims map[string]any, name string) []string {
	list, ok := claims[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func emailLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return strings.TrimSpace(local)
}
