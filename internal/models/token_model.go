package models

import "time"

// MeliToken holds the marketplace OAuth credentials. Access and refresh
// tokens are AES-GCM encrypted before they reach any backend.
type MeliToken struct {
	AccessToken  string    `db:"access_token" json:"access_token"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	ExpiresIn    int       `db:"expires_in" json:"expires_in"`
	Scope        string    `db:"scope" json:"scope"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExpiresWithin reports whether the token is expired or will expire inside
// the given window.
func (t *MeliToken) ExpiresWithin(now time.Time, window time.Duration) bool {
	expiry := t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
	return !now.Before(expiry.Add(-window))
}
