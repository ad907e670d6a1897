package main

import "errors"

var errNoDestination = errors.New("no backup destination: pass -dir or set backup.bucket")
