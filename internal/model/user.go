// Package model holds the three documents of the site: users, cafés and
// reviews. They carry no storage tags; each store converts to its own shape.
package model

import "slices"

// DefaultProfilePic is the picture every newly registered account starts with.
const DefaultProfilePic = "Photos/profile_picture.webp"

// User represents a registered account.
//
// Username is the lookup key used by every route (profile pages, review
// authorship, café ownership), so the stores keep it unique.
//
// WHY PasswordHash HAS json:"-"?
// The hash never leaves the server. Fixture files carry plaintext passwords in
// their own type (see internal/seed), so the domain type never needs to
// decode one.
//
// Helpful holds the IDs of reviews this user has voted on (either direction).
// Cafes holds the names of the cafés this user owns.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Email        string   `json:"email"`
	Description  string   `json:"desc"`
	ProfilePic   string   `json:"profile_pic"`
	Helpful      []string `json:"helpful"`
	Cafes        []string `json:"cafes"`
}

// OwnsCafe reports whether name is one of the cafés this user owns.
// The check is an exact membership test, not a substring match.
func (u *User) OwnsCafe(name string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Cafes, name)
}

// HasVoted reports whether this user already voted on the review.
func (u *User) HasVoted(reviewID string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Helpful, reviewID)
}
