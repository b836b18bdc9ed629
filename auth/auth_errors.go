package auth

// Client-facing messages. These are stable and part of the HTTP contract.
const (
	MsgUserNotFoundOrRoleMismatch = "User not found or role mismatch"
	MsgInvalidPassword            = "Invalid password"
	MsgUserAlreadyExists          = "User with this username or email already exists"
	MsgInvalidRefreshToken        = "Invalid refresh token"
	MsgInvalidResetToken          = "Invalid or expired token"
	MsgCurrentPasswordIncorrect   = "Current password is incorrect"
	MsgTooManyLoginAttempts       = "Too many login attempts, please try again later"
	MsgTooManyPasswordChanges     = "Too many requests, please try again later"
	MsgUserNotFound               = "User not found"
	MsgPasswordChanged            = "Password changed"
)
