// Package sqlerr specifically handles database driver errors.
//
// It parses SQLSTATE codes from the Postgres driver (and the sentinel
// errors gorm returns) and converts them into errs.Error values with
// readable messages, e.g. a unique violation on users.email becomes
// "A User with this Email already exists" with code USER_ALREADY_EXISTS.
package sqlerr
