// Package service contains the business logic.
//
// It sits between the entry point and the repository layer. Here that
// logic is the catalogue of CRUD demonstrations: which repository calls
// each one makes, with which literal values, and how its result is
// printed.
package service
