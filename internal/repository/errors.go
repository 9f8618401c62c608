package repository

import "errors"

var ErrDuplicate = errors.New("duplicate record")
