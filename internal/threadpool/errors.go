package threadpool

import "errors"

var errInvalidPoolSize = errors.New("threadpool: pool size must be at least 1")
