package player

import "space-mining-server/internal/shared/errors"

const (
	minUsernameLength = 3
	maxUsernameLength = 20
)

func errUsernameTaken(username string) error {
	return errors.Conflict("username_taken", "username "+username+" is already taken")
}

func errInvalidUsername() error {
	return errors.Validationf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
}
