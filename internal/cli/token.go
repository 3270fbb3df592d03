package cli

import (
	"fmt"
	"io"
	"time"

	"ride-hail-realtime/internal/domain/user"
	"ride-hail-realtime/internal/general/jwt"
)

// MintConnectionToken signs a short-lived realtime connection token for a
// local broker or a test backend.
//
// Typical use (dev-only):
//
//	token, _, err := cli.MintConnectionToken(secret, "rider-42", "rider", 15*time.Minute)
//
// Production credentials come from the backend's token endpoint.
func MintConnectionToken(secret, identity, roleStr string, ttl time.Duration) (string, jwt.Claims, error) {
	// parse and validate the role
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	mgr, err := jwt.NewManager(secret, ttl)
	if err != nil {
		return "", jwt.Claims{}, err
	}

	token, claims, err := mgr.IssueConnectionToken(identity, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}

// PrintToken writes the token followed by its claims.
func PrintToken(w io.Writer, token string, claims jwt.Claims) {
	if token != "" {
		fmt.Fprintln(w, "TOKEN:")
		fmt.Fprintln(w, token)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "CLAIMS:")
	fmt.Fprintf(w, "  sub:  %s\n", claims.Subject)
	fmt.Fprintf(w, "  role: %s\n", claims.Role)
	if claims.IssuedAt != nil {
		fmt.Fprintf(w, "  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	}
	if exp := claims.Expiry(); !exp.IsZero() {
		fmt.Fprintf(w, "  exp:  %s\n", exp.UTC().Format(time.RFC3339))
	}
}
