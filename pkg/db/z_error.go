package db

import "github.com/cockroachdb/errors"

var DbAlreadyStoppedErr = errors.New("db is stopped, can not perform the operation")
