// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package cerrs defines constant error types using a custom Error string
// type. It centralizes the handful of sentinel errors shared by the results
// store — schema creation, a PRAGMA returning an unexpected value, a
// database path that already exists — so callers can compare with
// errors.Is() instead of matching on message text.
package cerrs
