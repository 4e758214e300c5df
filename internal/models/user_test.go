package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserEqualByIdentifier(t *testing.T) {
	a := User{ID: 7, Email: "a@example.com"}
	b := User{ID: 7, Email: "b@example.com"}
	c := User{ID: 8, Email: "a@example.com"}

	assert.True(t, a.Equal(b), "same identifier means same user")
	assert.False(t, a.Equal(c))
}

func TestUserEqualUnpersisted(t *testing.T) {
	a := User{Email: "a@example.com"}
	b := User{Email: "a@example.com"}

	assert.False(t, a.Equal(b), "records without identifiers are never equal")
	assert.False(t, a.Equal(a))
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "  Ada ", LastName: " Lovelace "}
	assert.Equal(t, "Ada Lovelace", u.FullName())

	only := User{FirstName: "Ada"}
	assert.Equal(t, "Ada", only.FullName())
}
