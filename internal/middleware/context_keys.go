package middleware

// contextKey is the type used for every value this package stashes on a
// gin.Context, keeping it collision-free with keys set by other packages.
type contextKey string
