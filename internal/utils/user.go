package utils

import (
	"math/rand"
)

var avatars = []string{"⚽", "🏀", "🏈", "⚾", "🎾", "🏐", "🏉", "🏓", "🏸", "🏒", "🥏", "🏃"}

// RandomAvatar returns an emoji used as the default avatar for new users.
func RandomAvatar() string {
	return avatars[rand.Intn(len(avatars))]
}
